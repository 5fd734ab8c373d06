// Binary csvimport loads historical readings from a CSV export into the
// Datastore.
package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/cristhianapaza/SistCalidadAire/db"
	"github.com/cristhianapaza/SistCalidadAire/measurement"
)

const usageStr = `usage: %v -project PROJECT -device DEVICE csv_file

Reads lines from a CSV file and saves them to the Datastore as readings. It's
expected that the file is an AIRDATA export: the first line is column headers,
followed by lines of this format:

  timestamp,pm25,pm10,co,temp,humidity

The timestamp field must be formatted like this: %v

Any of the value fields may be empty, in which case the corresponding field of
the reading is left unset.
`

const timeFormat = "2006-01-02T15:04:05"

// lineToReading converts one CSV record into a reading. Empty value fields
// become nil pointers.
func lineToReading(line []string, deviceID string) (measurement.Reading, error) {
	var r measurement.Reading

	if len(line) != 6 {
		return r, fmt.Errorf("want 6 fields, got %d", len(line))
	}

	timestamp, err := time.Parse(timeFormat, line[0])
	if err != nil {
		return r, err
	}

	r.DeviceID = deviceID
	r.Timestamp = timestamp.UTC()

	fields := []struct {
		value string
		dest  **float64
	}{
		{line[1], &r.PM25},
		{line[2], &r.PM10},
		{line[3], &r.CO},
		{line[4], &r.Temp},
		{line[5], &r.Humidity},
	}
	for _, f := range fields {
		s := strings.TrimSpace(f.value)
		if s == "" {
			continue
		}

		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return measurement.Reading{}, err
		}
		*f.dest = &v
	}

	return r, nil
}

func importFromCSV(ctx context.Context, database db.Database, csvFile string, deviceID string) error {
	f, err := os.Open(csvFile)
	if err != nil {
		return err
	}
	defer f.Close()

	reader := csv.NewReader(bufio.NewReader(f))

	imported := 0
	for lineNum := 0; ; lineNum++ {
		line, err := reader.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return err
		}

		// Skip the header line
		if lineNum == 0 {
			continue
		}

		r, err := lineToReading(line, deviceID)
		if err != nil {
			log.WithError(err).Warnf("Skipping line %d", lineNum+1)
			continue
		}

		if err := database.Save(ctx, r); err != nil {
			return fmt.Errorf("line %d: %v", lineNum+1, err)
		}
		imported++
	}

	log.Infof("Imported %d readings", imported)
	return nil
}

func main() {
	projectID := flag.String("project", os.Getenv("GOOGLE_CLOUD_PROJECT"), "Google Cloud project ID")
	deviceID := flag.String("device", "", "device ID to attribute the readings to")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, usageStr, path.Base(os.Args[0]), timeFormat)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 || *projectID == "" || *deviceID == "" {
		flag.Usage()
		os.Exit(2)
	}

	database, err := db.NewDatastoreDB(*projectID)
	if err != nil {
		log.WithError(err).Fatal("Failed to make datastore DB")
	}

	if err := importFromCSV(context.Background(), database, flag.Arg(0), *deviceID); err != nil {
		log.WithError(err).Fatal("Import failed")
	}
}
