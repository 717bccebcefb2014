package chart

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Annotation is a text callout with a connector pointing at (Date, Y).
// The text sits at (Date, TextY).
type Annotation struct {
	Text  string    `yaml:"text"`
	Date  time.Time `yaml:"date"`
	Y     float64   `yaml:"y"`
	TextY float64   `yaml:"text_y"`
}

// Variant describes one rendered chart.
type Variant struct {
	Name        string       `yaml:"name"`
	Output      string       `yaml:"output"`
	Title       string       `yaml:"title"`
	YLabel      string       `yaml:"ylabel"`
	Cutoff      time.Time    `yaml:"cutoff"`
	Annotations []Annotation `yaml:"annotations"`
	// DailyTicks selects day-labelled major ticks with six-hour minor ticks.
	DailyTicks bool `yaml:"daily_ticks"`
}

const (
	defaultTitle  = "duration of successful e2e-aws runs"
	defaultYLabel = "duration (minutes)"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var (
	outage151 = Annotation{Text: "#151 outage", Date: day(2018, time.August, 20), Y: 35, TextY: 65}
	outage415 = Annotation{Text: "#415 outage", Date: day(2018, time.October, 4), Y: 25, TextY: 18}
)

// Builtin returns the full-history chart and the early-October close-up.
func Builtin() []Variant {
	return []Variant{
		{
			Name:        "full",
			Output:      "builds.png",
			Title:       defaultTitle,
			YLabel:      defaultYLabel,
			Annotations: []Annotation{outage151, outage415},
		},
		{
			Name:        "early-october",
			Output:      "builds-early-october.png",
			Title:       defaultTitle,
			YLabel:      defaultYLabel,
			Cutoff:      day(2018, time.September, 25),
			Annotations: []Annotation{outage415},
			DailyTicks:  true,
		},
	}
}

type variantFile struct {
	Variants []Variant `yaml:"variants"`
}

// LoadVariants reads variants from a YAML file and merges them over the
// built-ins: a variant with a built-in name replaces it, others are appended.
// An empty path returns the built-ins.
func LoadVariants(path string) ([]Variant, error) {
	variants := Builtin()
	if path == "" {
		return variants, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chart variants: %w", err)
	}

	var file variantFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse chart variants %s: %w", path, err)
	}

	for _, v := range file.Variants {
		if err := v.validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if v.Title == "" {
			v.Title = defaultTitle
		}
		if v.YLabel == "" {
			v.YLabel = defaultYLabel
		}

		replaced := false
		for i := range variants {
			if variants[i].Name == v.Name {
				variants[i] = v
				replaced = true
				break
			}
		}
		if !replaced {
			variants = append(variants, v)
		}
	}
	return variants, nil
}

func (v Variant) validate() error {
	if v.Name == "" {
		return errors.New("chart variant without a name")
	}
	if v.Output == "" {
		return fmt.Errorf("chart variant %q has no output file", v.Name)
	}
	return nil
}

// Select returns the variants named in names, in that order. No names selects all.
func Select(variants []Variant, names []string) ([]Variant, error) {
	if len(names) == 0 {
		return variants, nil
	}

	byName := make(map[string]Variant, len(variants))
	for _, v := range variants {
		byName[v.Name] = v
	}

	out := make([]Variant, 0, len(names))
	for _, name := range names {
		v, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown chart variant %q", name)
		}
		out = append(out, v)
	}
	return out, nil
}
