// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestBindFlags_BasicTypes(t *testing.T) {
	type params struct {
		Category string        `flag:"category" desc:"seat category"`
		Watch    bool          `flag:"watch,w" desc:"watch the map"`
		Count    int           `flag:"count" desc:"seats"`
		Limit    int64         `flag:"limit" desc:"bytes"`
		Ratio    float64       `flag:"ratio" desc:"occupancy"`
		Timeout  time.Duration `flag:"timeout" desc:"request timeout"`
		Zones    []string      `flag:"zones" desc:"zones"`
		Untagged string
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	err := flagSet.Parse([]string{
		"--category", "VIP",
		"-w",
		"--count", "4",
		"--limit", "4194304",
		"--ratio", "0.5",
		"--timeout", "10s",
		"--zones", "Norte,Sur",
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if p.Category != "VIP" {
		t.Errorf("Category = %q, want VIP", p.Category)
	}
	if !p.Watch {
		t.Error("Watch = false, want true")
	}
	if p.Count != 4 {
		t.Errorf("Count = %d, want 4", p.Count)
	}
	if p.Limit != 4194304 {
		t.Errorf("Limit = %d, want 4194304", p.Limit)
	}
	if p.Ratio != 0.5 {
		t.Errorf("Ratio = %f, want 0.5", p.Ratio)
	}
	if p.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", p.Timeout)
	}
	if strings.Join(p.Zones, ",") != "Norte,Sur" {
		t.Errorf("Zones = %v, want [Norte Sur]", p.Zones)
	}
	if flagSet.Lookup("untagged") != nil {
		t.Error("untagged field was bound")
	}
}

func TestBindFlags_Defaults(t *testing.T) {
	type params struct {
		Method  string        `flag:"method" default:"card"`
		Count   int           `flag:"count" default:"1"`
		Timeout time.Duration `flag:"timeout" default:"5m"`
		Watch   bool          `flag:"watch" default:"true"`
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	if err := flagSet.Parse(nil); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Method != "card" || p.Count != 1 || p.Timeout != 5*time.Minute || !p.Watch {
		t.Errorf("params = %+v, want defaults applied", p)
	}
}

func TestBindFlags_EmbeddedStructs(t *testing.T) {
	type params struct {
		GlobalParams
		JSONOutput
		File string `flag:"file"`
	}

	var p params
	flagSet := FlagsFromParams("test", &p)
	for _, name := range []string{"config", "verbose", "json", "file"} {
		if flagSet.Lookup(name) == nil {
			t.Errorf("flag --%s not bound", name)
		}
	}
	if err := flagSet.Parse([]string{"-c", "/etc/boxoffice.yaml", "--json"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.ConfigPath != "/etc/boxoffice.yaml" || !p.OutputJSON {
		t.Errorf("params = %+v", p)
	}
}

type compressionFlag struct {
	value string
}

func (c *compressionFlag) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&c.value, "compression", "zstd", "codec")
}

func TestBindFlags_FlagBinder(t *testing.T) {
	type params struct {
		Compression compressionFlag
	}
	var p params
	flagSet := FlagsFromParams("test", &p)
	if err := flagSet.Parse([]string{"--compression", "lz4"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Compression.value != "lz4" {
		t.Errorf("compression = %q, want lz4", p.Compression.value)
	}
}

func TestBindFlags_Errors(t *testing.T) {
	var notPointer struct{}
	if err := BindFlags(notPointer, pflag.NewFlagSet("test", pflag.ContinueOnError)); err == nil {
		t.Error("BindFlags(non-pointer) = nil, want error")
	}

	type badDefault struct {
		Count int `flag:"count" default:"many"`
	}
	if err := BindFlags(&badDefault{}, pflag.NewFlagSet("test", pflag.ContinueOnError)); err == nil {
		t.Error("BindFlags(bad default) = nil, want error")
	}

	type unsupported struct {
		Seats map[string]int `flag:"seats"`
	}
	if err := BindFlags(&unsupported{}, pflag.NewFlagSet("test", pflag.ContinueOnError)); err == nil {
		t.Error("BindFlags(map field) = nil, want error")
	}
}
