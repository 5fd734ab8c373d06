// Binary dashboard serves the air quality monitoring web UI: a plot of
// recent readings, per-device stats, the latest AQI per device, and
// daily/weekly/monthly summaries.
package main

import (
	"flag"
	"html/template"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/cristhianapaza/SistCalidadAire/cache"
	"github.com/cristhianapaza/SistCalidadAire/db"
	"github.com/cristhianapaza/SistCalidadAire/measurement"
)

// Data up to this many hours old will be plotted
const defaultDataDisplayAgeHours = 12

func main() {
	var (
		projectID    = flag.String("project", os.Getenv("GOOGLE_CLOUD_PROJECT"), "Google Cloud project ID")
		listen       = flag.String("listen", ":8080", "listen address")
		devices      = flag.String("devices", "", "comma-separated device IDs to show latest readings for")
		templatesDir = flag.String("templates", "templates", "path to the HTML templates")
	)
	flag.Parse()

	if *projectID == "" {
		log.Fatal("Project ID must be set with -project or GOOGLE_CLOUD_PROJECT")
	}

	// Parse and cache all templates at startup instead of loading on each
	// request.
	templates := template.Must(template.New("index.html").Funcs(
		template.FuncMap{
			"millis": func(t time.Time) int64 {
				return t.Unix() * 1000
			},
			"RFC3339": func(t time.Time) string {
				return t.Format(time.RFC3339)
			},
		}).ParseGlob(*templatesDir + "/*"))

	database, err := db.NewDatastoreDB(*projectID)
	if err != nil {
		log.WithError(err).Fatal("Failed to make datastore DB")
	}

	var deviceIDs []string
	for _, id := range strings.Split(*devices, ",") {
		if id = strings.TrimSpace(id); id != "" {
			deviceIDs = append(deviceIDs, id)
		}
	}

	r := mux.NewRouter()
	r.Handle("/", rootHandler{
		DeviceIDs:         deviceIDs,
		DefaultDisplayAge: defaultDataDisplayAgeHours * time.Hour,
		Database:          database,
		Template:          templates,
		Queries:           cache.New[map[string][]measurement.Reading](),
	})
	r.Handle("/api/readings", apiHandler{Database: database})

	log.Infof("Listening on %v", *listen)
	if err := http.ListenAndServe(*listen, handlers.LoggingHandler(os.Stdout, r)); err != nil {
		log.WithError(err).Fatal("HTTP server failed")
	}
}
