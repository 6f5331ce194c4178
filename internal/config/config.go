package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every setting of the home controller and its command-line client.
type Config struct {
	// HTTPAddress is the listen address of the HTML control page.
	HTTPAddress string `yaml:"http_addr"`
	// GRPCAddress is the listen address of the HomeService gRPC API.
	GRPCAddress string `yaml:"grpc_addr"`
	// ServerAddress is the address home-ctl dials to reach a running hub.
	ServerAddress string `yaml:"server_addr"`
	// UpdateFolder is the URL where release artifacts are hosted.
	UpdateFolder string `yaml:"update_folder"`
	// Timeout bounds network operations and RPC calls.
	Timeout time.Duration `yaml:"timeout"`
	// Tick is the sleep between two poll loop iterations.
	Tick time.Duration `yaml:"tick"`
	// Simulate replaces the GPIO board with an in-memory one.
	Simulate bool `yaml:"simulate"`
	// AlertMode selects how the buzzer pattern is played: blocking or async.
	AlertMode string `yaml:"alert_mode"`
	// RangingTimeout bounds a single ultrasonic measurement.
	RangingTimeout time.Duration `yaml:"ranging_timeout"`
	// Debounce is the minimum spacing between two accepted button presses.
	Debounce time.Duration `yaml:"debounce"`
	// LogLevel is the level of the process logger.
	LogLevel string `yaml:"log_level"`
	// DeviceLogLevel is the level applied to per-tick sensor diagnostics.
	DeviceLogLevel string `yaml:"device_log_level"`
	// Thresholds holds the fixed sensor limits.
	Thresholds Thresholds `yaml:"thresholds"`
	// Alert describes the buzzer pattern.
	Alert Alert `yaml:"alert"`
	// Pins maps every device to a GPIO name understood by periph.io.
	Pins Pins `yaml:"pins"`
	// I2C configures the bus shared by the joystick ADC and the OLED.
	I2C I2C `yaml:"i2c"`
	// Notify configures where alarm transitions are published.
	Notify Notify `yaml:"notify"`
}

// Thresholds are the sensor limits used by security lighting and the alarm.
type Thresholds struct {
	// ProximityCm switches the security light when something is closer.
	ProximityCm float64 `yaml:"proximity_cm"`
	// IntrusionCm triggers the alarm when something is closer to the zone sensor.
	IntrusionCm float64 `yaml:"intrusion_cm"`
	// AxisMin is the lowest raw joystick reading of a closed door.
	AxisMin uint16 `yaml:"axis_min"`
	// AxisMax is the highest raw joystick reading of a closed door.
	AxisMax uint16 `yaml:"axis_max"`
}

// Alert describes the audible pattern: Repetitions times a tone then a pause.
type Alert struct {
	Repetitions int           `yaml:"repetitions"`
	Tone        time.Duration `yaml:"tone"`
	Pause       time.Duration `yaml:"pause"`
	FrequencyHz int64         `yaml:"frequency_hz"`
}

// Pins holds periph.io pin names (for example "GPIO18").
type Pins struct {
	FrontTrigger string   `yaml:"front_trigger"`
	FrontEcho    string   `yaml:"front_echo"`
	AlarmTrigger string   `yaml:"alarm_trigger"`
	AlarmEcho    string   `yaml:"alarm_echo"`
	Buzzer       string   `yaml:"buzzer"`
	LightSensor  string   `yaml:"light_sensor"`
	Button       string   `yaml:"button"`
	StatusLED    string   `yaml:"status_led"`
	SecurityRGB  []string `yaml:"security_rgb"`
	// Rooms lists the light outputs in the order living room, kitchen,
	// bedroom, bathroom, yard.
	Rooms []string `yaml:"rooms"`
}

// I2C configures the I²C bus devices.
type I2C struct {
	// Bus is the periph.io bus name; empty selects the first bus.
	Bus string `yaml:"bus"`
	// ADCAddress is the ADS1115 address reading the joystick.
	ADCAddress uint16 `yaml:"adc_addr"`
	// AxisXChannel and AxisYChannel are the ADS1115 inputs of the joystick axes.
	AxisXChannel int `yaml:"axis_x_channel"`
	AxisYChannel int `yaml:"axis_y_channel"`
	// OLED enables the SSD1306 status display.
	OLED bool `yaml:"oled"`
}

// Notify configures the alarm event publishers. Empty sections are disabled.
type Notify struct {
	// QueueSize is the number of events buffered for the notifiers.
	QueueSize int `yaml:"queue_size"`
	// Timeout bounds a single delivery.
	Timeout  time.Duration `yaml:"timeout"`
	MQTT     MQTT          `yaml:"mqtt"`
	Telegram Telegram      `yaml:"telegram"`
	Webhook  Webhook       `yaml:"webhook"`
}

// MQTT configures the broker publisher.
type MQTT struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	QoS      byte   `yaml:"qos"`
}

// Telegram configures the chat notifier.
type Telegram struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
}

// Webhook configures the HTTP POST notifier.
type Webhook struct {
	URL string `yaml:"url"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "home-hub-settings.yaml"

	// DefaultEnvFilename is the optional dotenv file read next to the settings.
	DefaultEnvFilename = ".env"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultTick is the poll loop period.
	DefaultTick = 100 * time.Millisecond

	// DefaultRangingTimeout covers the ~4 m range of an HC-SR04 (about 23 ms of echo).
	DefaultRangingTimeout = 30 * time.Millisecond

	// DefaultDebounce is the button debounce window.
	DefaultDebounce = 300 * time.Millisecond

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	// AlertModeBlocking plays the pattern on the poll loop goroutine.
	AlertModeBlocking = "blocking"

	// AlertModeAsync plays the pattern on its own goroutine.
	AlertModeAsync = "async"

	// maxRawAxis is the top of the 12-bit joystick scale.
	maxRawAxis = 4095
)

var (
	// ErrInvalidThresholds is returned when sensor limits are inconsistent.
	ErrInvalidThresholds = errors.New("invalid thresholds")

	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errUnknownAlertMode is returned for alert modes other than blocking/async.
	errUnknownAlertMode = errors.New("unknown alert mode")
	// errRoomPins is returned when the room pin list is not exactly five long.
	errRoomPins = errors.New("exactly five room pins are required")
	// errRGBPins is returned when the security light is not three pins.
	errRGBPins = errors.New("exactly three security light pins are required")
)

// Default returns settings matching the reference wiring.
func Default() *Config {
	cfg := new(Config)
	applyDefaults(cfg)

	return cfg
}

// Load reads configuration from path, applies .env and environment overrides
// and validates the result.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err = yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err = ApplyEnv(&cfg, DefaultEnvFilename); err != nil {
		return nil, err
	}

	if err = Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes cfg to path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills defaults for unset fields and rejects inconsistent values.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	applyDefaults(cfg)

	for _, addr := range []string{cfg.HTTPAddress, cfg.GRPCAddress, cfg.ServerAddress} {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("invalid address %q: %w", addr, err)
		}
	}

	switch cfg.AlertMode {
	case AlertModeBlocking, AlertModeAsync:
	default:
		return fmt.Errorf("%q: %w", cfg.AlertMode, errUnknownAlertMode)
	}

	if err := validateThresholds(cfg.Thresholds); err != nil {
		return err
	}

	if len(cfg.Pins.Rooms) != roomCount {
		return errRoomPins
	}

	if len(cfg.Pins.SecurityRGB) != rgbCount {
		return errRGBPins
	}

	if cfg.UpdateFolder == "" {
		return nil
	}

	if _, err := url.ParseRequestURI(cfg.UpdateFolder); err != nil {
		return fmt.Errorf("invalid update folder URI: %w", err)
	}

	return nil
}

func validateThresholds(t Thresholds) error {
	switch {
	case t.ProximityCm <= 0 || t.IntrusionCm <= 0:
		return fmt.Errorf("distances must be positive: %w", ErrInvalidThresholds)
	case t.AxisMin >= t.AxisMax:
		return fmt.Errorf("axis window [%d, %d] is empty: %w", t.AxisMin, t.AxisMax, ErrInvalidThresholds)
	case t.AxisMax > maxRawAxis:
		return fmt.Errorf("axis max %d exceeds %d: %w", t.AxisMax, maxRawAxis, ErrInvalidThresholds)
	}

	return nil
}

const (
	roomCount = 5
	rgbCount  = 3
)

//nolint:cyclop,funlen // Flat list of defaults, one branch per field.
func applyDefaults(cfg *Config) {
	setString(&cfg.HTTPAddress, ":80")
	setString(&cfg.GRPCAddress, ":50051")
	setString(&cfg.ServerAddress, "127.0.0.1:50051")
	setString(&cfg.AlertMode, AlertModeBlocking)
	setString(&cfg.LogLevel, "info")
	setString(&cfg.DeviceLogLevel, "warn")

	cfg.AlertMode = strings.ToLower(strings.TrimSpace(cfg.AlertMode))

	setDuration(&cfg.Timeout, DefaultTimeout)
	setDuration(&cfg.Tick, DefaultTick)
	setDuration(&cfg.RangingTimeout, DefaultRangingTimeout)
	setDuration(&cfg.Debounce, DefaultDebounce)

	if cfg.Thresholds.ProximityCm == 0 {
		cfg.Thresholds.ProximityCm = 15
	}

	if cfg.Thresholds.IntrusionCm == 0 {
		cfg.Thresholds.IntrusionCm = 15
	}

	if cfg.Thresholds.AxisMin == 0 && cfg.Thresholds.AxisMax == 0 {
		cfg.Thresholds.AxisMin, cfg.Thresholds.AxisMax = 1800, 2200
	}

	if cfg.Alert.Repetitions <= 0 {
		cfg.Alert.Repetitions = 8
	}

	setDuration(&cfg.Alert.Tone, 80*time.Millisecond)
	setDuration(&cfg.Alert.Pause, 50*time.Millisecond)

	if cfg.Alert.FrequencyHz <= 0 {
		cfg.Alert.FrequencyHz = 2500
	}

	setString(&cfg.Pins.FrontTrigger, "GPIO8")
	setString(&cfg.Pins.FrontEcho, "GPIO9")
	setString(&cfg.Pins.AlarmTrigger, "GPIO18")
	setString(&cfg.Pins.AlarmEcho, "GPIO19")
	setString(&cfg.Pins.Buzzer, "GPIO21")
	setString(&cfg.Pins.LightSensor, "GPIO16")
	setString(&cfg.Pins.Button, "GPIO5")
	setString(&cfg.Pins.StatusLED, "GPIO6")

	if len(cfg.Pins.SecurityRGB) == 0 {
		cfg.Pins.SecurityRGB = []string{"GPIO13", "GPIO11", "GPIO12"}
	}

	if len(cfg.Pins.Rooms) == 0 {
		cfg.Pins.Rooms = []string{"GPIO17", "GPIO22", "GPIO23", "GPIO24", "GPIO25"}
	}

	if cfg.I2C.ADCAddress == 0 {
		cfg.I2C.ADCAddress = 0x48
	}

	if cfg.I2C.AxisXChannel == 0 && cfg.I2C.AxisYChannel == 0 {
		cfg.I2C.AxisYChannel = 1
	}

	if cfg.Notify.QueueSize <= 0 {
		cfg.Notify.QueueSize = 16
	}

	setDuration(&cfg.Notify.Timeout, DefaultTimeout)
	setString(&cfg.Notify.MQTT.Topic, "home/alarm")
	setString(&cfg.Notify.MQTT.ClientID, "home-hub")
}

func setString(field *string, value string) {
	if strings.TrimSpace(*field) == "" {
		*field = value
	}
}

func setDuration(field *time.Duration, value time.Duration) {
	if *field <= 0 {
		*field = value
	}
}
