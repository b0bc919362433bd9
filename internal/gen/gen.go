/*
Package gen shapes telemetry records: synthetic documents in the layout the
analytics pipeline expects, and augmentation of rows read from CSV exports.

A record carries 25 base columns, generated measurement fields gen_26 through
gen_150 of mixed JSON types, a country/city pair, and the producer-side
ingestion timestamp.
*/
package gen

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/fluxgate/fluxgate/pkg/types"
)

const (
	// BaseColumns is the number of leading columns every record carries.
	BaseColumns = 25

	genFieldLow  = 26
	genFieldHigh = 150
)

// defaultCountries maps each country to its candidate cities.
var defaultCountries = map[string][]string{
	"India":          {"Mumbai", "Delhi", "Bengaluru", "Kolkata", "Chennai"},
	"USA":            {"New York", "Los Angeles", "Chicago", "Houston", "San Francisco"},
	"United Kingdom": {"London", "Manchester", "Birmingham", "Leeds", "Glasgow"},
	"Germany":        {"Berlin", "Hamburg", "Munich", "Cologne", "Frankfurt"},
	"France":         {"Paris", "Marseille", "Lyon", "Toulouse", "Nice"},
	"Canada":         {"Toronto", "Montreal", "Vancouver", "Calgary", "Ottawa"},
	"Australia":      {"Sydney", "Melbourne", "Brisbane", "Perth", "Adelaide"},
	"Brazil":         {"Sao Paulo", "Rio de Janeiro", "Brasilia", "Salvador", "Fortaleza"},
	"South Africa":   {"Johannesburg", "Cape Town", "Durban", "Pretoria", "Port Elizabeth"},
	"Japan":          {"Tokyo", "Osaka", "Kyoto", "Yokohama", "Nagoya"},
}

/*
Generator produces record fields with a seedable source, so runs can be
reproduced.  Not safe for concurrent use.
*/
type Generator struct {
	faker     *gofakeit.Faker
	countries map[string][]string
	names     []string
}

/*
New creates a Generator.  A zero seed gives a random source.  countriesFile
optionally overrides the built-in country/city mapping with a JSON object of
the same shape.
*/
func New(seed uint64, countriesFile string) (*Generator, error) {
	countries := defaultCountries
	if countriesFile != "" {
		raw, err := os.ReadFile(countriesFile)
		if err != nil {
			return nil, fmt.Errorf("read countries file: %w", err)
		}
		override := make(map[string][]string)
		if err := json.Unmarshal(raw, &override); err != nil {
			return nil, fmt.Errorf("parse countries file: %w", err)
		}
		countries = override
	}

	// Country names are iterated in sorted order so that seeded runs are
	// deterministic.
	names := make([]string, 0, len(countries))
	for name := range countries {
		names = append(names, name)
	}
	sort.Strings(names)

	return &Generator{
		faker:     gofakeit.New(seed),
		countries: countries,
		names:     names,
	}, nil
}

// Record builds a fully synthetic record: base columns plus augmentation.
func (g *Generator) Record() map[string]any {
	doc := make(map[string]any, BaseColumns)
	for i := 1; i <= BaseColumns; i++ {
		doc[fmt.Sprintf("col%d", i)] = g.value()
	}
	g.Augment(doc)
	return doc
}

/*
Augment attaches the generated measurement fields, a country/city pair, and
the ingestion timestamp to an existing record.
*/
func (g *Generator) Augment(doc map[string]any) {
	for i := genFieldLow; i <= genFieldHigh; i++ {
		doc[fmt.Sprintf("gen_%d", i)] = g.value()
	}

	country, city := g.location()
	doc["country"] = country
	doc["city"] = city
	doc[types.FieldIngestedAt] = time.Now().UTC().Format(time.RFC3339Nano)
}

// value picks a random JSON value: int, float, bool, word, or a short
// sentence, with the weights the downstream summary statistics expect.
func (g *Generator) value() any {
	t := g.faker.Float64Range(0, 1)
	switch {
	case t < 0.25:
		return g.faker.Number(0, 10000)
	case t < 0.55:
		f := g.faker.Float64Range(-1000, 10000)
		return math.Round(f*1e4) / 1e4
	case t < 0.75:
		return g.faker.Bool()
	default:
		if g.faker.Float64Range(0, 1) < 0.6 {
			return g.faker.Word()
		}
		return g.faker.Sentence(g.faker.Number(2, 5))
	}
}

func (g *Generator) location() (string, string) {
	country := g.names[g.faker.Number(0, len(g.names)-1)]
	cities := g.countries[country]
	if len(cities) == 0 {
		return country, ""
	}
	return country, cities[g.faker.Number(0, len(cities)-1)]
}
