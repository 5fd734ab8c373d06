// Binary aqicalc computes the AQI for pollutant concentrations given on the
// command line. With one -c flag it prints the index for that pollutant; with
// several it also prints the combined overall index.
//
// Example:
//
//	aqicalc -c pm25=35.5 -c co=2
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cristhianapaza/SistCalidadAire/aqi"
)

func fatal(format string, a ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}

// concFlags collects repeated -c pollutant=concentration flags.
type concFlags map[aqi.Pollutant]float64

func (c concFlags) String() string {
	parts := make([]string, 0, len(c))
	for p, v := range c {
		parts = append(parts, fmt.Sprintf("%v=%v", p, v))
	}
	return strings.Join(parts, ",")
}

func (c concFlags) Set(s string) error {
	name, value, ok := strings.Cut(s, "=")
	if !ok {
		return fmt.Errorf("want pollutant=concentration, got %q", s)
	}

	var p aqi.Pollutant
	if err := p.UnmarshalText([]byte(name)); err != nil {
		return err
	}

	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("bad concentration %q: %v", value, err)
	}

	c[p] = v
	return nil
}

func formatResult(r aqi.Result) string {
	if !r.Valid {
		return fmt.Sprintf("N/A (%v, %v)", r.Category, r.Color)
	}
	return fmt.Sprintf("%d (%v, %v)", r.Index, r.Category, r.Color)
}

func main() {
	concentrations := concFlags{}
	flag.Var(concentrations, "c", "pollutant=concentration, may be repeated (pollutants: pm25, pm10, co)")
	flag.Parse()

	if len(concentrations) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	result := aqi.Combine(map[aqi.Pollutant]float64(concentrations))

	for _, p := range aqi.Pollutants() {
		r, ok := result.PerPollutant[p]
		if !ok {
			continue
		}
		fmt.Printf("%-5v %v\n", p, formatResult(r))
	}

	if len(concentrations) > 1 {
		fmt.Printf("%-5v %v\n", "aqi", formatResult(result.Overall))
	}

	if !result.Overall.Valid {
		fatal("No pollutant concentration was within range")
	}
}
