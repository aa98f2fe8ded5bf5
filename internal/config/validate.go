package config

import (
	"errors"
	"fmt"
	"net"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("toml"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return strings.ToLower(field.Name)
		}
		return name
	})
	return v
}

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	if err := validate.Struct(cfg); err != nil {
		return nil, describeValidation(err)
	}

	warnings := make([]Warning, 0)

	switch cfg.Keyboard.Backend {
	case "custom":
		if len(cfg.Keyboard.TypeCmd.Argv) == 0 {
			return nil, fmt.Errorf("keyboard.type_cmd must not be empty when keyboard.backend=custom")
		}
		if len(cfg.Keyboard.BackspaceCmd.Argv) == 0 {
			return nil, fmt.Errorf("keyboard.backspace_cmd must not be empty when keyboard.backend=custom")
		}
	default:
		if cfg.Keyboard.TypeCmd.Raw != "" || cfg.Keyboard.BackspaceCmd.Raw != "" {
			warnings = append(warnings, Warning{Message: fmt.Sprintf("keyboard.type_cmd/backspace_cmd ignored when keyboard.backend=%s", cfg.Keyboard.Backend)})
		}
	}

	if cfg.Indicator.Backend == "desktop" && strings.TrimSpace(cfg.Indicator.DesktopAppName) == "" {
		return nil, fmt.Errorf("indicator.desktop_app_name must not be empty when indicator.backend=desktop")
	}

	if cfg.Feed.Enable {
		if strings.TrimSpace(cfg.Feed.Listen) == "" {
			return nil, fmt.Errorf("feed.listen must not be empty when feed.enable=true")
		}
		if host, _, err := net.SplitHostPort(cfg.Feed.Listen); err == nil && !isLoopback(host) {
			warnings = append(warnings, Warning{Message: fmt.Sprintf("feed.listen %q is not a loopback address; the event feed has no authentication", cfg.Feed.Listen)})
		}
	}

	if cfg.Typing.MistakeRate > 0.2 {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("typing.mistake_rate=%.2f is unusually high", cfg.Typing.MistakeRate)})
	}
	if cfg.Typing.BaseWPM > 400 {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("typing.base_wpm=%d is faster than any human typist", cfg.Typing.BaseWPM)})
	}
	if cfg.Typing.CountdownSeconds > 60 {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("typing.countdown_seconds=%d delays every run by over a minute", cfg.Typing.CountdownSeconds)})
	}

	return warnings, nil
}

// ValidateTyping checks a typing profile on its own, as received over IPC.
func ValidateTyping(cfg TypingConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return describeValidation(err)
	}
	return nil
}

func describeValidation(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, describeField(fe))
	}
	return errors.New(strings.Join(messages, "; "))
}

func describeField(fe validator.FieldError) string {
	name := fieldPath(fe)
	switch fe.Tag() {
	case "gt":
		return fmt.Sprintf("%s must be > %s", name, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", name, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be <= %s", name, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "hostname_port":
		return fmt.Sprintf("%s must be host:port", name)
	default:
		return fmt.Sprintf("%s failed %s validation", name, fe.Tag())
	}
}

// fieldPath drops the root struct name: "Config.typing.base_wpm" -> "typing.base_wpm".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
