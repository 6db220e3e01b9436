// Package config holds the options of a training run and reads them from properties or yaml files.
package config

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/hscells/taxifare/faults"
	"github.com/magiconair/properties"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Run is the configuration of a training run. It is created once and only ever read afterwards.
type Run struct {
	Estimator        string `yaml:"estimator"`
	EstimatorParams  string `yaml:"estimator_params"`
	DistanceType     string `yaml:"distance_type"`
	Feateng          string `yaml:"feateng"`
	NRows            int    `yaml:"nrows"`
	DataOrigin       string `yaml:"data_origin"`
	Split            bool   `yaml:"split"`
	Seed             int64  `yaml:"seed"`
	Optimize         bool   `yaml:"optimize"`
	PipelineMemory   string `yaml:"pipeline_memory"`
	MLFlow           bool   `yaml:"mlflow"`
	ExperimentName   string `yaml:"experiment_name"`
	TrackingBackend  string `yaml:"tracking_backend"`
	TrackingURI      string `yaml:"tracking_uri"`
	ModelUpload      bool   `yaml:"model_upload"`
	UploadURL        string `yaml:"upload_url"`
	FinalModel       bool   `yaml:"final_model"`
	ArtifactDir      string `yaml:"artifact_dir"`
	LocalPath        string `yaml:"local_path"`
	AWSURL           string `yaml:"aws_url"`
	GCPBucket        string `yaml:"gcp_bucket"`
	GCPPath          string `yaml:"gcp_path"`
	TimeZone         string `yaml:"time_zone"`
	GeohashPrecision int    `yaml:"geohash_precision"`
	Verbose          bool   `yaml:"verbose"`
}

// Defaults is the configuration used for any option that is not set.
func Defaults() Run {
	return Run{
		Estimator:        "LinearRegression",
		DistanceType:     "euclidian",
		Feateng:          "distance,time_features",
		NRows:            10000,
		DataOrigin:       "local",
		Split:            true,
		ExperimentName:   "taxifare",
		TrackingBackend:  "log",
		ArtifactDir:      "models",
		LocalPath:        "raw_data/train.csv",
		AWSURL:           "https://wagon-public-datasets.s3.amazonaws.com/taxi-fare-train.csv",
		GCPBucket:        "wagon-ml-taxifare",
		GCPPath:          "data/train_1k.csv",
		TimeZone:         "America/New_York",
		GeohashPrecision: 6,
	}
}

type field struct {
	get func(r *Run) string
	set func(r *Run, v string) error
}

func str(p func(r *Run) *string) field {
	return field{
		get: func(r *Run) string { return *p(r) },
		set: func(r *Run, v string) error { *p(r) = v; return nil },
	}
}

func boolean(p func(r *Run) *bool) field {
	return field{
		get: func(r *Run) string { return strconv.FormatBool(*p(r)) },
		set: func(r *Run, v string) (err error) { *p(r), err = strconv.ParseBool(v); return },
	}
}

func integer(p func(r *Run) *int) field {
	return field{
		get: func(r *Run) string { return strconv.Itoa(*p(r)) },
		set: func(r *Run, v string) (err error) { *p(r), err = strconv.Atoi(v); return },
	}
}

func integer64(p func(r *Run) *int64) field {
	return field{
		get: func(r *Run) string { return strconv.FormatInt(*p(r), 10) },
		set: func(r *Run, v string) (err error) { *p(r), err = strconv.ParseInt(v, 10, 64); return },
	}
}

var fields = map[string]field{
	"estimator":         str(func(r *Run) *string { return &r.Estimator }),
	"estimator_params":  str(func(r *Run) *string { return &r.EstimatorParams }),
	"distance_type":     str(func(r *Run) *string { return &r.DistanceType }),
	"feateng":           str(func(r *Run) *string { return &r.Feateng }),
	"nrows":             integer(func(r *Run) *int { return &r.NRows }),
	"data_origin":       str(func(r *Run) *string { return &r.DataOrigin }),
	"split":             boolean(func(r *Run) *bool { return &r.Split }),
	"seed":              integer64(func(r *Run) *int64 { return &r.Seed }),
	"optimize":          boolean(func(r *Run) *bool { return &r.Optimize }),
	"pipeline_memory":   str(func(r *Run) *string { return &r.PipelineMemory }),
	"mlflow":            boolean(func(r *Run) *bool { return &r.MLFlow }),
	"experiment_name":   str(func(r *Run) *string { return &r.ExperimentName }),
	"tracking_backend":  str(func(r *Run) *string { return &r.TrackingBackend }),
	"tracking_uri":      str(func(r *Run) *string { return &r.TrackingURI }),
	"model_upload":      boolean(func(r *Run) *bool { return &r.ModelUpload }),
	"upload_url":        str(func(r *Run) *string { return &r.UploadURL }),
	"final_model":       boolean(func(r *Run) *bool { return &r.FinalModel }),
	"artifact_dir":      str(func(r *Run) *string { return &r.ArtifactDir }),
	"local_path":        str(func(r *Run) *string { return &r.LocalPath }),
	"aws_url":           str(func(r *Run) *string { return &r.AWSURL }),
	"gcp_bucket":        str(func(r *Run) *string { return &r.GCPBucket }),
	"gcp_path":          str(func(r *Run) *string { return &r.GCPPath }),
	"time_zone":         str(func(r *Run) *string { return &r.TimeZone }),
	"geohash_precision": integer(func(r *Run) *int { return &r.GeohashPrecision }),
	"verbose":           boolean(func(r *Run) *bool { return &r.Verbose }),
}

// Keys lists every option name in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set overrides a single option. Unknown keys and unparseable values are configuration errors.
func (r *Run) Set(key, value string) error {
	f, ok := fields[key]
	if !ok {
		return faults.Newf(faults.Configuration, "config", key, "unknown option %q", key)
	}
	if err := f.set(r, strings.TrimSpace(value)); err != nil {
		return faults.New(faults.Configuration, "config", key, err)
	}
	return nil
}

// Overlay applies every entry of m on top of r.
func (r Run) Overlay(m map[string]string) (Run, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := r.Set(k, m[k]); err != nil {
			return r, err
		}
	}
	return r, nil
}

// FromMap creates a configuration from the defaults overlaid with m.
func FromMap(m map[string]string) (Run, error) {
	return Defaults().Overlay(m)
}

// Params flattens the configuration into the option names and values used for parameter logging.
func (r Run) Params() map[string]string {
	m := make(map[string]string, len(fields))
	for k, f := range fields {
		m[k] = f.get(&r)
	}
	return m
}

// Overrides parses estimator_params, a list of name=value pairs separated by semicolons.
func (r Run) Overrides() (map[string]float64, error) {
	m := make(map[string]float64)
	for _, pair := range strings.Split(r.EstimatorParams, ";") {
		if pair = strings.TrimSpace(pair); len(pair) == 0 {
			continue
		}
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 || len(strings.TrimSpace(kv[0])) == 0 {
			return nil, faults.Newf(faults.Configuration, "config", "estimator_params", "%q is not name=value", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(kv[1]), 64)
		if err != nil {
			return nil, faults.New(faults.Configuration, "config", "estimator_params", errors.Wrapf(err, "parameter %s", kv[0]))
		}
		m[strings.TrimSpace(kv[0])] = v
	}
	return m, nil
}

// FormatOverrides renders hyperparameters in the estimator_params format, ordered by name.
func FormatOverrides(params map[string]float64) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + strconv.FormatFloat(params[k], 'g', -1, 64)
	}
	return strings.Join(pairs, ";")
}

// Load reads a configuration from a .properties, .yaml or .yml file. Options the file does not mention keep their
// defaults.
func Load(path string) (Run, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".properties":
		p, err := properties.LoadFile(path, properties.UTF8)
		if err != nil {
			return Run{}, faults.New(faults.Configuration, "config", path, err)
		}
		return FromMap(p.Map())
	case ".yaml", ".yml":
		b, err := os.ReadFile(path)
		if err != nil {
			return Run{}, faults.New(faults.Configuration, "config", path, err)
		}
		r := Defaults()
		if err := yaml.Unmarshal(b, &r); err != nil {
			return Run{}, faults.New(faults.Configuration, "config", path, err)
		}
		return r, nil
	}
	return Run{}, faults.Newf(faults.Configuration, "config", path, "unsupported configuration format %q", filepath.Ext(path))
}

// Properties renders the configuration in .properties format.
func (r Run) Properties() string {
	p := properties.NewProperties()
	params := r.Params()
	for _, k := range Keys() {
		_, _, _ = p.Set(k, params[k])
	}
	return p.String()
}
