package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/cristhianapaza/SistCalidadAire/db"
	"github.com/cristhianapaza/SistCalidadAire/measurement"
)

const defaultAPIHours = 12

// apiHandler serves readings with their derived AQI as JSON. The "hours"
// query parameter controls how far back to look.
type apiHandler struct {
	Database db.Database
}

func (h apiHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	hours := defaultAPIHours
	if v := r.URL.Query().Get("hours"); v != "" {
		var err error
		hours, err = strconv.Atoi(v)
		if err != nil || hours < 1 {
			http.Error(w, fmt.Sprintf("Bad hours value %q", v), http.StatusBadRequest)
			return
		}
	}

	end := time.Now().UTC()
	start := end.Add(-time.Duration(hours) * time.Hour)

	readings, err := h.Database.ReadingsBetween(r.Context(), start, end)
	if err != nil {
		log.WithError(err).Error("Error fetching readings")
		http.Error(w, "Error fetching readings", http.StatusInternalServerError)
		return
	}

	derived := make(map[string][]measurement.Derived, len(readings))
	for id, rs := range readings {
		ds := make([]measurement.Derived, len(rs))
		for i, reading := range rs {
			ds[i] = measurement.Derive(reading)
		}
		derived[id] = ds
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(derived); err != nil {
		log.WithError(err).Error("Could not encode response")
	}
}
