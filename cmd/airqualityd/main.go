// Binary airqualityd subscribes to sensor telemetry over MQTT, derives AQI
// values for each reading, and stores the results in the Datastore with a
// mirror to InfluxDB. It also runs an hourly rollup job and serves Prometheus
// metrics.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/naoina/toml"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/cristhianapaza/SistCalidadAire/db"
	"github.com/cristhianapaza/SistCalidadAire/measurement"
)

const saveTimeout = 10 * time.Second

type mqttConfig struct {
	Broker   string
	ClientID string
	Topic    string
	Username string
	Password string
}

type influxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

type config struct {
	ProjectID string
	Listen    string
	Mqtt      mqttConfig
	Influx    influxConfig
}

type ingester struct {
	database db.Database
	influx   *db.InfluxDB
}

// handleMessage decodes one telemetry payload, derives its AQI, and stores
// it. Decode failures and storage failures are counted and logged but never
// fatal; the subscription keeps running.
func (in *ingester) handleMessage(client mqtt.Client, msg mqtt.Message) {
	var r measurement.Reading
	if err := json.Unmarshal(msg.Payload(), &r); err != nil {
		decodeErrors.Inc()
		log.WithError(err).Errorf("Could not decode payload on %q", msg.Topic())
		return
	}

	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}
	if r.DeviceID == "" {
		r.DeviceID = "unknown"
	}

	d := measurement.Derive(r)

	readingsTotal.WithLabelValues(d.DeviceID).Inc()
	for p, res := range d.AQI.PerPollutant {
		if !res.Valid {
			outOfRangeTotal.WithLabelValues(p.String()).Inc()
		}
	}
	if d.AQI.Overall.Valid {
		latestAQI.WithLabelValues(d.DeviceID).Set(float64(d.AQI.Overall.Index))
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	if err := in.database.Save(ctx, r); err != nil {
		saveErrors.WithLabelValues("datastore").Inc()
		log.WithError(err).Error("Failed to save reading")
	}
	if in.influx != nil {
		if err := in.influx.Save(ctx, d); err != nil {
			saveErrors.WithLabelValues("influx").Inc()
			log.WithError(err).Error("Failed to mirror reading to InfluxDB")
		}
	}

	log.WithFields(log.Fields{
		"device":   d.DeviceID,
		"aqi":      d.AQI.Overall.Index,
		"category": d.AQI.Overall.Category.String(),
	}).Info("Reading stored")
}

func loadConfig(path string) (config, error) {
	var c config

	f, err := os.Open(path)
	if err != nil {
		return c, err
	}
	defer f.Close()

	if err := toml.NewDecoder(f).Decode(&c); err != nil {
		return c, err
	}

	if c.Listen == "" {
		c.Listen = ":8081"
	}
	return c, nil
}

func main() {
	configFile := flag.String("config", "", "path to TOML config file")
	flag.Parse()

	if *configFile == "" {
		log.Fatal("Must specify configuration file with -config FILENAME")
	}

	conf, err := loadConfig(*configFile)
	if err != nil {
		log.WithError(err).Fatal("Failed to load config")
	}

	database, err := db.NewDatastoreDB(conf.ProjectID)
	if err != nil {
		log.WithError(err).Fatal("Failed to make datastore DB")
	}

	in := &ingester{database: database}
	if conf.Influx != (influxConfig{}) {
		in.influx = db.NewInfluxDB(conf.Influx.URL, conf.Influx.Token, conf.Influx.Org, conf.Influx.Bucket)
	} else {
		log.Info("No InfluxDB configuration found, not mirroring readings")
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(conf.Mqtt.Broker)
	opts.SetClientID(conf.Mqtt.ClientID)
	if conf.Mqtt.Username != "" && conf.Mqtt.Password != "" {
		opts.SetUsername(conf.Mqtt.Username)
		opts.SetPassword(conf.Mqtt.Password)
	}
	opts.OnConnect = func(client mqtt.Client) {
		r := client.OptionsReader()
		log.Infof("Connected to MQTT at %v", r.Servers())

		if token := client.Subscribe(conf.Mqtt.Topic, 1, in.handleMessage); token.Wait() && token.Error() != nil {
			log.WithError(token.Error()).Fatalf("Failed to subscribe to %q", conf.Mqtt.Topic)
		}
	}
	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		log.WithError(err).Error("MQTT connection lost")
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.WithError(token.Error()).Fatal("Failed to connect to MQTT broker")
	}

	c := cron.New()
	if _, err := c.AddJob("@hourly", rollupJob{database: database, influx: in.influx}); err != nil {
		log.WithError(err).Fatal("Failed to schedule rollup job")
	}
	c.Start()
	defer c.Stop()

	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	go func() {
		log.Infof("Listening on %v", conf.Listen)
		if err := http.ListenAndServe(conf.Listen, handlers.LoggingHandler(os.Stdout, r)); err != nil {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	client.Disconnect(250)
	log.Info("Shutting down")
}
