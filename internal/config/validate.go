package config

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"benchkeep/internal/compare"
	"benchkeep/internal/errs"
	"benchkeep/internal/history"
	"benchkeep/internal/parser"
)

// MaxItemsLimit is the largest accepted max-items-in-chart.
const MaxItemsLimit = 10000

// ValidationError represents a single invalid setting.
type ValidationError struct {
	Key     string   // The config key, e.g. "alert_threshold"
	Message string   // Human-readable reason
	Value   string   // The offending value, if any
	Allowed []string // For enum settings, the accepted values
}

// ValidationResult contains all validation outcomes.
type ValidationResult struct {
	Valid  bool
	Errors []ValidationError
}

// Validate checks every setting and collects all errors rather than
// stopping at the first one.
func Validate(c Config) ValidationResult {
	var verrs []ValidationError
	add := func(key, value, msg string) {
		verrs = append(verrs, ValidationError{Key: key, Value: value, Message: msg})
	}
	enum := func(key, value string, allowed []string) {
		for _, a := range allowed {
			if a == value {
				return
			}
		}
		verrs = append(verrs, ValidationError{Key: key, Value: value, Message: "invalid value", Allowed: allowed})
	}

	// ParseRatio messages already quote the offending value.
	thresholdsOK := true
	if strings.TrimSpace(c.AlertThreshold) != "" {
		if _, err := compare.ParseRatio(c.AlertThreshold); err != nil {
			add("alert_threshold", "", err.Error())
			thresholdsOK = false
		}
	}
	if strings.TrimSpace(c.FailThreshold) != "" {
		if _, err := compare.ParseRatio(c.FailThreshold); err != nil {
			add("fail_threshold", "", err.Error())
			thresholdsOK = false
		}
	}
	if thresholdsOK {
		if _, err := c.Thresholds(); errors.Is(err, compare.ErrFailBelowAlert) {
			add("fail_threshold", c.FailThreshold, compare.ErrFailBelowAlert.Error())
		}
	}

	if c.Name == "" {
		add("name", "", "must not be empty")
	}
	enum("tool", c.Tool, parser.Tools())
	enum("format", c.Format, Formats())

	if err := ValidateBranchName(c.GhPagesBranch); err != nil {
		add("gh_pages_branch", c.GhPagesBranch, err.Error())
	}
	if c.MaxItemsInChart < 0 || c.MaxItemsInChart > MaxItemsLimit {
		add("max_items_in_chart", fmt.Sprint(c.MaxItemsInChart), fmt.Sprintf("must be between 1 and %d", MaxItemsLimit))
	}

	if c.DataBucket != "" {
		enum("data_bucket_type", c.DataBucketType, []string{string(history.BucketLocal), string(history.BucketS3)})
	}
	if c.DataBucket != "" && c.ExternalDataJSONPath != "" {
		add("external_data_json_path", c.ExternalDataJSONPath, "cannot be combined with data_bucket")
	}

	if c.WantsComment(true) && c.GitHubToken != "" {
		if err := ValidateToken(c.GitHubToken); err != nil {
			// Never echo a credential.
			add("github_token", "", err.Error())
		}
	}

	return ValidationResult{
		Valid:  len(verrs) == 0,
		Errors: verrs,
	}
}

// Err folds an invalid result into a single ConfigError. It returns nil for
// a valid result.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	if len(r.Errors) == 1 {
		e := r.Errors[0]
		return errs.Config(e.Key, errors.New(describe(e)))
	}
	return errs.Config("", errors.New(strings.Join(FormatErrors(r), "; ")))
}

// FormatError formats a ValidationError into a human-readable message.
func FormatError(err ValidationError) string {
	return fmt.Sprintf("%s: %s", err.Key, describe(err))
}

func describe(err ValidationError) string {
	if len(err.Allowed) > 0 {
		return fmt.Sprintf("'%s' is not valid, must be one of: %s", err.Value, strings.Join(err.Allowed, ", "))
	}
	if err.Value != "" {
		return fmt.Sprintf("'%s' %s", err.Value, err.Message)
	}
	return err.Message
}

// FormatErrors formats all validation errors.
func FormatErrors(result ValidationResult) []string {
	messages := make([]string, len(result.Errors))
	for i, err := range result.Errors {
		messages[i] = FormatError(err)
	}
	return messages
}

// ValidateBranchName applies the subset of git-check-ref-format rules that
// matter for a publish branch.
func ValidateBranchName(name string) error {
	switch {
	case name == "":
		return errors.New("branch name must not be empty")
	case len(name) > 255:
		return errors.New("branch name is longer than 255 characters")
	case strings.HasPrefix(name, "."):
		return errors.New("branch name must not start with '.'")
	case strings.HasSuffix(name, ".lock"):
		return errors.New("branch name must not end with '.lock'")
	}
	for _, bad := range []string{"..", "@{", "~", "^", ":", "?", "*", "[", " ", "\t"} {
		if strings.Contains(name, bad) {
			return errors.Errorf("branch name must not contain %q", bad)
		}
	}
	return nil
}

// ValidateToken checks that a GitHub token is plausibly shaped.
func ValidateToken(token string) error {
	if len(token) < 20 {
		return errors.New("token appears to be too short")
	}
	for _, r := range token {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-') {
			return errors.New("token contains invalid characters")
		}
	}
	return nil
}
