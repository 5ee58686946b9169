package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// override binds one EVENTWALL_* variable to a config field.
type override struct {
	key string
	set func(c *Config, val string) error
}

func str(field func(*Config) *string) func(*Config, string) error {
	return func(c *Config, val string) error {
		*field(c) = val
		return nil
	}
}

func integer(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, val string) error {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("not an integer: %q", val)
		}
		*field(c) = n
		return nil
	}
}

func boolean(field func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, val string) error {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("not a boolean: %q", val)
		}
		*field(c) = b
		return nil
	}
}

// duration accepts Go syntax ("5s") or a bare number of seconds.
func duration(field func(*Config) *time.Duration) func(*Config, string) error {
	return func(c *Config, val string) error {
		if d, err := time.ParseDuration(val); err == nil {
			*field(c) = d
			return nil
		}
		secs, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("not a duration: %q", val)
		}
		*field(c) = time.Duration(secs * float64(time.Second))
		return nil
	}
}

var overrides = []override{
	{"LISTEN", str(func(c *Config) *string { return &c.Listen })},
	{"PUBLIC_ORIGIN", str(func(c *Config) *string { return &c.PublicOrigin })},
	{"DATA_DIR", str(func(c *Config) *string { return &c.DataDir })},
	{"DB_DRIVER", str(func(c *Config) *string { return &c.DB.Driver })},
	{"DB_PATH", str(func(c *Config) *string { return &c.DB.Path })},
	{"MAX_UPLOAD_MB", integer(func(c *Config) *int { return &c.MaxUploadMB })},
	{"LOG_LEVEL", str(func(c *Config) *string { return &c.LogLevel })},
	{"LOG_FORMAT", str(func(c *Config) *string { return &c.LogFormat })},
	{"PUBLIC_URL", str(func(c *Config) *string { return &c.Live.PublicURL })},
	{"AUTO_APPROVE", boolean(func(c *Config) *bool { return &c.Live.AutoApprove })},
	{"SHOW_QR_OVERLAY", boolean(func(c *Config) *bool { return &c.Live.ShowQROverlay })},
	{"SLIDE_INTERVAL", duration(func(c *Config) *time.Duration { return &c.Display.SlideInterval })},
	{"SURFACE_HEIGHT", integer(func(c *Config) *int { return &c.Display.SurfaceHeight })},
	{"LANE_HEIGHT", integer(func(c *Config) *int { return &c.Display.LaneHeight })},
	{"SEND_BUFFER", integer(func(c *Config) *int { return &c.Hub.SendBuffer })},
}

// applyEnv overlays every set EVENTWALL_* variable onto c. A malformed value
// is an error rather than a silent fallback to the file or default.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for _, o := range overrides {
		name := EnvPrefix + "_" + o.key
		val, ok := lookup(name)
		if !ok || val == "" {
			continue
		}
		if err := o.set(c, val); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
