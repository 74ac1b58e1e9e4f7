// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestBindFlags_BasicTypes(t *testing.T) {
	type params struct {
		Output   string   `flag:"output,o" desc:"output file"`
		DryRun   bool     `flag:"dry-run,n" desc:"do not write"`
		Limit    int      `flag:"limit" desc:"maximum results"`
		MaxSize  int64    `flag:"max-size" desc:"largest source in bytes"`
		Digests  []string `flag:"digest" desc:"explicit digest"`
		Untagged string
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}

	err := flagSet.Parse([]string{
		"-o", "library.ttl",
		"-n",
		"--limit", "7",
		"--max-size", "1099511627776",
		"--digest", "md5:00112233445566778899aabbccddeeff",
		"--digest", "sha256:aa,sha256:bb",
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if p.Output != "library.ttl" {
		t.Errorf("Output = %q, want %q", p.Output, "library.ttl")
	}
	if !p.DryRun {
		t.Error("DryRun = false, want true")
	}
	if p.Limit != 7 {
		t.Errorf("Limit = %d, want 7", p.Limit)
	}
	if p.MaxSize != 1099511627776 {
		t.Errorf("MaxSize = %d, want 1099511627776", p.MaxSize)
	}
	wantDigests := []string{"md5:00112233445566778899aabbccddeeff", "sha256:aa", "sha256:bb"}
	if !reflect.DeepEqual(p.Digests, wantDigests) {
		t.Errorf("Digests = %v, want %v", p.Digests, wantDigests)
	}
	if flagSet.Lookup("untagged") != nil {
		t.Error("untagged field was bound")
	}
}

func TestBindFlags_Defaults(t *testing.T) {
	type params struct {
		Compress string   `flag:"compress" default:"zstd"`
		Limit    int      `flag:"limit" default:"20"`
		MaxSize  int64    `flag:"max-size" default:"16777216"`
		Index    bool     `flag:"index" default:"true"`
		Algos    []string `flag:"algorithm" default:"sha512,md5"`
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	if err := flagSet.Parse(nil); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if p.Compress != "zstd" || p.Limit != 20 || p.MaxSize != 16777216 || !p.Index {
		t.Errorf("defaults = %+v", p)
	}
	if !reflect.DeepEqual(p.Algos, []string{"sha512", "md5"}) {
		t.Errorf("Algos = %v, want [sha512 md5]", p.Algos)
	}
}

type storeFlags struct {
	Directory string
}

func (s *storeFlags) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVarP(&s.Directory, "store", "s", "", "store directory")
}

func TestBindFlags_Composition(t *testing.T) {
	type embedded struct {
		Verbose bool `flag:"verbose,v"`
	}
	type params struct {
		embedded
		JSONOutput
		Store storeFlags
		Title string `flag:"title"`
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	if err := flagSet.Parse([]string{"-v", "--json", "-s", "/srv/idx", "--title", "Wealth"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !p.Verbose || !p.OutputJSON || p.Store.Directory != "/srv/idx" || p.Title != "Wealth" {
		t.Errorf("params = %+v", p)
	}
}

func TestBindFlags_Errors(t *testing.T) {
	tests := []struct {
		name   string
		params any
		want   string
	}{
		{"not a pointer", struct{}{}, "pointer to a struct"},
		{"pointer to non-struct", new(string), "pointer to a struct"},
		{"unsupported type", &struct {
			Rate float32 `flag:"rate"`
		}{}, "unsupported type"},
		{"bad bool default", &struct {
			Index bool `flag:"index" default:"maybe"`
		}{}, "default for --index"},
		{"bad int default", &struct {
			Limit int `flag:"limit" default:"many"`
		}{}, "default for --limit"},
		{"unexported flag field", &struct {
			limit int `flag:"limit"`
		}{}, "must be exported"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := BindFlags(tt.params, pflag.NewFlagSet("test", pflag.ContinueOnError))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("BindFlags() = %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestFlagsFromParams_PanicsOnInvalid(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("FlagsFromParams did not panic")
		}
	}()
	FlagsFromParams("bad", 42)
}
