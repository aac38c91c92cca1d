package config

import (
	"errors"
	"fmt"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"reflect"
	"strings"
	"time"
	"zpassword/internal/util"
)

type Config struct {
	Port        uint16        `mapstructure:"PORT" validate:"required"`
	DatabaseURL string        `mapstructure:"DATABASE_URL"`
	DBRetries   int           `mapstructure:"DATABASE_RETRIES" validate:"gte=0"`
	RedisURL    string        `mapstructure:"REDIS_URL" validate:"omitempty,url"`
	HibpURL     string        `mapstructure:"HIBP_URL" validate:"required,url"`
	HibpTimeout time.Duration `mapstructure:"HIBP_TIMEOUT" validate:"gt=0"`
	HibpRetries int           `mapstructure:"HIBP_RETRIES" validate:"gte=0,lte=10"`
	HibpPadding bool          `mapstructure:"HIBP_PADDING"`
	CacheSize   int64         `mapstructure:"CACHE_SIZE" validate:"gt=0"`
	CacheTTL    time.Duration `mapstructure:"CACHE_TTL" validate:"gte=0"`
	Strategy    string        `mapstructure:"CRACK_STRATEGY" validate:"oneof=simple advanced"`
	SelfTLS     bool          `mapstructure:"SELF_TLS" validate:"required_without_all=TLSCert TLSKey"`
	TLSCert     string        `mapstructure:"TLS_CERT" validate:"required_with=TLSKey"`
	TLSKey      string        `mapstructure:"TLS_KEY" validate:"required_with=TLSCert"`
	Debug       bool          `mapstructure:"DEBUG"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", 3100)
	v.SetDefault("DATABASE_RETRIES", 3)
	v.SetDefault("HIBP_URL", "https://api.pwnedpasswords.com")
	v.SetDefault("HIBP_TIMEOUT", 10*time.Second)
	v.SetDefault("HIBP_RETRIES", 0)
	v.SetDefault("HIBP_PADDING", true)
	v.SetDefault("CACHE_SIZE", 64<<20)
	v.SetDefault("CACHE_TTL", time.Hour)
	v.SetDefault("CRACK_STRATEGY", "advanced")
}

func bindEnvs(v *viper.Viper, iface interface{}, parts ...string) {
	ifv := reflect.ValueOf(iface)
	ift := reflect.TypeOf(iface)
	for i := 0; i < ift.NumField(); i++ {
		fv := ifv.Field(i)
		t := ift.Field(i)
		tv, ok := t.Tag.Lookup("mapstructure")
		if !ok {
			continue
		}
		switch fv.Kind() {
		case reflect.Struct:
			bindEnvs(v, fv.Interface(), append(parts, tv)...)
		default:
			_ = v.BindEnv(strings.Join(append(parts, tv), "."))
		}
	}
}

func msgForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "required_without_all":
		return fmt.Sprintf("This field is required if fields [%s] are missing", util.ToScreamingSnakeCase(fe.Param()))
	case "required_with":
		return fmt.Sprintf("This field requires the presence of %s", util.ToScreamingSnakeCase(fe.Param()))
	case "oneof":
		return fmt.Sprintf("This field must be one of [%s]", fe.Param())
	case "url":
		return "This field must be a valid URL"
	}
	return fe.Error() // default error
}

// Read reads the configuration from the environment without validating it, so command line
// flags can be applied first. A config file is not required.
func Read() (config Config, err error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	// I hate this, but it works.
	// This is to not require a config file to unmarshal Envs in a struct
	// https://github.com/spf13/viper/issues/188#issuecomment-399884438
	config = Config{}
	bindEnvs(v, config)

	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("reading configuration from environment: %w", err)
	}

	return config, nil
}

// Validate returns every failing field in one error, named by its environment variable.
func Validate(config Config) error {
	err := validator.New().Struct(&config)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("validating configuration: %w", err)
	}

	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fmt.Sprintf("%s: %s", util.ToScreamingSnakeCase(fe.Field()), msgForTag(fe)))
	}
	return errors.New(strings.Join(msgs, ". "))
}
