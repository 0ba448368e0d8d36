package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime settings of the pricing pipeline.
type Config struct {
	Email struct {
		Server        string   `json:"server"`         // IMAP server with port
		Username      string   `json:"username"`       // mailbox account
		Password      string   `json:"password"`       // password or app token
		Mailbox       string   `json:"mailbox"`        // defaults to INBOX
		TargetSubject string   `json:"target_subject"` // subject keyword of the fare mail
		CheckInterval Duration `json:"check_interval"`
	} `json:"email"`

	DataDir     string `json:"data_dir"`   // watched folder and attachment target
	InputFile   string `json:"input_file"` // .xlsx or .csv
	SheetName   string `json:"sheet_name"` // empty selects the first sheet
	HeaderRow   int    `json:"header_row"` // 0-based header row of the sheet
	OutputDir   string `json:"output_dir"`
	LogName     string `json:"log_name"`
	LogMaxSize  string `json:"log_max_size"` // e.g. "10 * 1024 * 1024"
	LogLevel    string `json:"log_level"`
	Schedule    string `json:"schedule"`     // cron spec, empty runs once
	MetricsAddr string `json:"metrics_addr"` // empty disables /metrics and /logs

	SendEmail struct {
		Server     string   `json:"server"`
		Username   string   `json:"username"`
		Password   string   `json:"password"`
		Subject    string   `json:"subject"`
		Recipients []string `json:"recipients"`
	} `json:"send_email"`

	Webhook struct {
		URL     string   `json:"url"`    // DingTalk robot webhook
		Secret  string   `json:"secret"` // signing secret, optional
		Timeout Duration `json:"timeout"`
	} `json:"webhook"`
}

// ModelConfig declares the feature set and the ensemble hyperparameters.
type ModelConfig struct {
	Categorical     []string      `json:"categorical"`
	Numeric         []string      `json:"numeric"`
	Target          string        `json:"target"`
	TestRatio       float64       `json:"test_ratio"`
	NEstimators     int           `json:"n_estimators"`
	RandomSeed      int64         `json:"random_seed"`
	MaxDepth        int           `json:"max_depth"`
	MinSamplesSplit int           `json:"min_samples_split"`
	MinSamplesLeaf  int           `json:"min_samples_leaf"`
	MaxFeatures     int           `json:"max_features"`
	SampleRoute     string        `json:"sample_route"`
	Display         DisplayConfig `json:"display"`
}

// DisplayConfig controls how tables are printed. It is passed to the
// report printer explicitly on every call.
type DisplayConfig struct {
	MaxRows        int  `json:"max_rows"`
	MaxColumns     int  `json:"max_columns"`
	ShowAllColumns bool `json:"show_all_columns"`
	TopFeatures    int  `json:"top_features"`
	TopRoutes      int  `json:"top_routes"`
}

// DefaultModelConfig mirrors the reference model: 100 trees, seed 42, 80/20 split.
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		Categorical:     []string{"Airline", "Source", "Destination", "Dep_Time_Bucket"},
		Numeric:         []string{"Total_Stops_Clean", "Total_Duration_minutes", "Day_of_Journey", "Month_of_Journey"},
		Target:          "Price",
		TestRatio:       0.2,
		NEstimators:     100,
		RandomSeed:      42,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		SampleRoute:     "BLR → BOM → DEL",
		Display:         DefaultDisplayConfig(),
	}
}

func DefaultDisplayConfig() DisplayConfig {
	return DisplayConfig{
		MaxRows:     20,
		MaxColumns:  12,
		TopFeatures: 10,
		TopRoutes:   10,
	}
}

// withDefaults fills zero values left out of modelconfig.json.
func (mc ModelConfig) withDefaults() ModelConfig {
	def := DefaultModelConfig()
	if len(mc.Categorical) == 0 {
		mc.Categorical = def.Categorical
	}
	if len(mc.Numeric) == 0 {
		mc.Numeric = def.Numeric
	}
	if mc.Target == "" {
		mc.Target = def.Target
	}
	if mc.TestRatio <= 0 || mc.TestRatio >= 1 {
		mc.TestRatio = def.TestRatio
	}
	if mc.NEstimators <= 0 {
		mc.NEstimators = def.NEstimators
	}
	if mc.RandomSeed == 0 {
		mc.RandomSeed = def.RandomSeed
	}
	if mc.MinSamplesSplit <= 0 {
		mc.MinSamplesSplit = def.MinSamplesSplit
	}
	if mc.MinSamplesLeaf <= 0 {
		mc.MinSamplesLeaf = def.MinSamplesLeaf
	}
	if mc.SampleRoute == "" {
		mc.SampleRoute = def.SampleRoute
	}
	if mc.Display.MaxRows <= 0 {
		mc.Display.MaxRows = def.Display.MaxRows
	}
	if mc.Display.MaxColumns <= 0 {
		mc.Display.MaxColumns = def.Display.MaxColumns
	}
	if mc.Display.TopFeatures <= 0 {
		mc.Display.TopFeatures = def.Display.TopFeatures
	}
	if mc.Display.TopRoutes <= 0 {
		mc.Display.TopRoutes = def.Display.TopRoutes
	}
	return mc
}

// LoadConfig reads config.json and modelconfig.json from jsonFolder. A .env
// file in the same folder, when present, overrides the secrets.
func LoadConfig(jsonFolder, jsonFile, modelJsonFile string) (*Config, *ModelConfig, error) {
	configFile := filepath.Join(jsonFolder, jsonFile)
	modelConfigFile := filepath.Join(jsonFolder, modelJsonFile)

	configData, err := readFile(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("read config: %w", err)
	}

	modelConfigData, err := readFile(modelConfigFile)
	if err != nil {
		return nil, nil, fmt.Errorf("read model config: %w", err)
	}

	cfgChan := make(chan *Config, 1)
	mcfgChan := make(chan *ModelConfig, 1)
	errChan := make(chan error, 2)

	go parseConfig(configData, cfgChan, errChan)
	go parseModelConfig(modelConfigData, mcfgChan, errChan)

	cfg, mcfg, err := waitForResults(cfgChan, mcfgChan, errChan)
	if err != nil {
		return nil, nil, err
	}

	if err := applyEnv(filepath.Join(jsonFolder, ".env"), cfg); err != nil {
		return nil, nil, err
	}
	return cfg, mcfg, nil
}

func readFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", filePath, err)
	}
	return data, nil
}

func parseConfig(data []byte, resultChan chan<- *Config, errChan chan<- error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		errChan <- fmt.Errorf("parse Config: %w", err)
		return
	}
	if cfg.Email.Mailbox == "" {
		cfg.Email.Mailbox = "INBOX"
	}
	resultChan <- &cfg
}

func parseModelConfig(data []byte, resultChan chan<- *ModelConfig, errChan chan<- error) {
	var mcfg ModelConfig
	if err := json.Unmarshal(data, &mcfg); err != nil {
		errChan <- fmt.Errorf("parse ModelConfig: %w", err)
		return
	}
	mcfg = mcfg.withDefaults()
	resultChan <- &mcfg
}

func waitForResults(
	cfgChan <-chan *Config,
	mcfgChan <-chan *ModelConfig,
	errChan <-chan error,
) (*Config, *ModelConfig, error) {
	var (
		cfg    *Config
		mcfg   *ModelConfig
		errors []error
	)

	for i := 0; i < 2; i++ {
		select {
		case c := <-cfgChan:
			cfg = c
		case m := <-mcfgChan:
			mcfg = m
		case err := <-errChan:
			errors = append(errors, err)
		}
	}

	if len(errors) > 0 {
		return nil, nil, combineErrors(errors)
	}

	if cfg == nil || mcfg == nil {
		return nil, nil, fmt.Errorf("config partially loaded")
	}

	return cfg, mcfg, nil
}

func combineErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	msg := "config load failed:"
	for _, err := range errs {
		msg = fmt.Sprintf("%s\n- %v", msg, err)
	}
	return fmt.Errorf("%s", msg)
}

// applyEnv overlays secrets from the process environment, after loading
// envFile if it exists.
func applyEnv(envFile string, cfg *Config) error {
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	if v := os.Getenv("FARE_EMAIL_PASSWORD"); v != "" {
		cfg.Email.Password = v
	}
	if v := os.Getenv("FARE_SMTP_PASSWORD"); v != "" {
		cfg.SendEmail.Password = v
	}
	if v := os.Getenv("FARE_WEBHOOK_URL"); v != "" {
		cfg.Webhook.URL = v
	}
	return nil
}

// Duration wraps time.Duration so it can be written as "5m" in JSON.
type Duration time.Duration

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
