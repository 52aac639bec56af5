package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g.
// SILORECON_STORAGE_DB_DSN overrides storage.db.dsn.
const EnvPrefix = "SILORECON"

// Default extract queries against the source schema.
const (
	DefaultTasksQuery    = "SELECT * FROM warehouse_task_validation.wt_silos"
	DefaultMappingsQuery = "SELECT * FROM warehouse_task_validation.silo_bins"
)

// Load reads the pipeline file at path.
//
// envFile, when non-empty, is loaded into the process environment first
// (existing variables win); a missing envFile is not an error. Every string
// field can then be overridden by SILORECON_<PATH> with dots replaced by
// underscores, and ${VAR} references inside options values are expanded.
func Load(path, envFile string) (Pipeline, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Pipeline{}, fmt.Errorf("config: load env file %s: %w", envFile, err)
		}
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	p, err := Decode(b)
	if err != nil {
		return Pipeline{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return p, nil
}

// Decode parses pipeline JSON, then applies environment overrides and
// defaults the same way Load does.
func Decode(b []byte) (Pipeline, error) {
	var p Pipeline
	if err := json.Unmarshal(b, &p); err != nil {
		return Pipeline{}, err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	overlayEnv(v, reflect.ValueOf(&p).Elem(), "")

	expandOptions(p.Source.CSV.Parser.Options)
	for k, v := range p.Source.CSV.Headers {
		p.Source.CSV.Headers[k] = os.ExpandEnv(v)
	}
	for _, n := range p.Notify {
		expandOptions(n.Options)
	}

	applyDefaults(&p)
	return p, nil
}

// overlayEnv walks the struct behind rv and replaces every string field for
// which an environment variable is set.
func overlayEnv(v *viper.Viper, rv reflect.Value, prefix string) {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		tag, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if tag == "" || tag == "-" {
			continue
		}
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}
		fv := rv.Field(i)
		switch fv.Kind() {
		case reflect.Struct:
			overlayEnv(v, fv, key)
		case reflect.String:
			if v.IsSet(key) {
				fv.SetString(v.GetString(key))
			}
		}
	}
}

func expandOptions(o Options) {
	for k, val := range o {
		switch t := val.(type) {
		case string:
			o[k] = os.ExpandEnv(t)
		case map[string]any:
			expandOptions(Options(t))
		case []any:
			for i, e := range t {
				if s, ok := e.(string); ok {
					t[i] = os.ExpandEnv(s)
				}
			}
		}
	}
}

func applyDefaults(p *Pipeline) {
	if p.Source.Kind == "sql" {
		if strings.TrimSpace(p.Source.SQL.TasksQuery) == "" {
			p.Source.SQL.TasksQuery = DefaultTasksQuery
		}
		if strings.TrimSpace(p.Source.SQL.MappingsQuery) == "" {
			p.Source.SQL.MappingsQuery = DefaultMappingsQuery
		}
	}
	if p.Source.Kind == "csv" && p.Source.CSV.Parser.Kind == "" {
		p.Source.CSV.Parser.Kind = "csv"
	}
	if p.Log.Level == "" {
		p.Log.Level = "info"
	}
	if p.Log.Format == "" {
		p.Log.Format = "json"
	}
	if p.Metrics.Backend == "" {
		p.Metrics.Backend = "none"
	}
}
