// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package config holds the environment configuration the core reads:
// plan cache size, XASL plan size, default numeric division scale,
// compatibility mode, empty-string semantics, and the hostvar
// late-binding flag. Parsed the same way the teacher's cmd/snellerd
// parses its server flags: a flag.FlagSet read directly into struct
// fields, defaulted before parsing so every parameter has the default
// this package must honor when absent.
package config

import (
	"flag"
	"os"
)

// Compat selects a SQL dialect compatibility mode.
type Compat int

const (
	CompatDefault Compat = iota
	CompatMySQL
	CompatOracle
)

// Config is the environment the core reads at startup. Every field has
// a default that is honored when the corresponding flag/environment
// variable is absent.
type Config struct {
	// Endpoint is the TCP address the dispatcher listens on.
	Endpoint string

	// PlanCacheSize is the number of entries the XASL plan cache (C6)
	// holds. PlanCacheSize <= 0 disables the prepare/execute fast path:
	// every PREPARE recompiles, and Prepare()'s plan-cache miss path is
	// never consulted by the session layer.
	PlanCacheSize int

	// MaxPlanSize bounds the byte length of a single XASL plan stream
	// plancache.Cache.Prepare will install.
	MaxPlanSize int

	// DefaultDivScale is the scale assigned to the NUMERIC result of a
	// division when neither operand pins one down.
	DefaultDivScale int

	// Compat selects MySQL- or Oracle-style dialect quirks
	// (COMPAT_MYSQL enables MySQL-style substring/subtract semantics).
	Compat Compat

	// OracleStyleEmptyString, when true, makes NULL-concat yield the
	// other operand instead of NULL (ORACLE_STYLE_EMPTY_STRING).
	OracleStyleEmptyString bool

	// HostvarLateBinding, when true, lets a host variable whose value
	// is not yet known keep type MAYBE through Check instead of being
	// rejected immediately.
	HostvarLateBinding bool
}

// Default returns the configuration the core MUST honor when every
// flag/environment variable is absent.
func Default() Config {
	return Config{
		Endpoint:               "127.0.0.1:33000",
		PlanCacheSize:          256,
		MaxPlanSize:            1 << 20,
		DefaultDivScale:        9,
		Compat:                 CompatDefault,
		OracleStyleEmptyString: false,
		HostvarLateBinding:     true,
	}
}

// Parse parses args (typically os.Args[1:]) into a Config seeded with
// Default(), then overlays the CUBRID_COMPAT/ORACLE_STYLE_EMPTY_STRING
// environment variables the same way cmd/snellerd overlays CACHEDIR.
func Parse(args []string) (Config, error) {
	cfg := Default()
	fs := flag.NewFlagSet("qserverd", flag.ContinueOnError)
	fs.StringVar(&cfg.Endpoint, "e", cfg.Endpoint, "endpoint to listen on")
	fs.IntVar(&cfg.PlanCacheSize, "plancache-size", cfg.PlanCacheSize, "number of XASL plans to cache (<=0 disables the prepare/execute fast path)")
	fs.IntVar(&cfg.MaxPlanSize, "max-plan-size", cfg.MaxPlanSize, "maximum size in bytes of a single cached XASL plan stream")
	fs.IntVar(&cfg.DefaultDivScale, "div-scale", cfg.DefaultDivScale, "default NUMERIC division scale")
	mysqlCompat := fs.Bool("compat-mysql", cfg.Compat == CompatMySQL, "enable MySQL-style substring/subtract semantics")
	oracleCompat := fs.Bool("compat-oracle", cfg.Compat == CompatOracle, "enable Oracle-style NULL-concat semantics")
	fs.BoolVar(&cfg.HostvarLateBinding, "hostvar-late-binding", cfg.HostvarLateBinding, "allow a host variable to keep type MAYBE until bound")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if *mysqlCompat {
		cfg.Compat = CompatMySQL
	}
	if *oracleCompat {
		cfg.Compat = CompatOracle
		cfg.OracleStyleEmptyString = true
	}
	if v := os.Getenv("ORACLE_STYLE_EMPTY_STRING"); v != "" {
		cfg.OracleStyleEmptyString = true
	}
	if v := os.Getenv("CUBRID_COMPAT"); v == "mysql" {
		cfg.Compat = CompatMySQL
	}
	return cfg, nil
}
