package main

import (
	"fmt"
	"regexp"

	"github.com/syed-x-farhan/AAVE-Scrapping/internal/models"
	"github.com/syed-x-farhan/AAVE-Scrapping/internal/utils"
)

var namespaceFlagRe = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// ValidateFlags checks the command-line flag combination before any
// expensive work starts.
func ValidateFlags(targetURL string, cutoff string, namespace string,
	maxDuration int, checkpointInterval int) error {

	if targetURL != "" {
		if err := models.ValidateURL(targetURL); err != nil {
			return fmt.Errorf("invalid target URL: %w", err)
		}
	}

	if cutoff == "" {
		return fmt.Errorf("--cutoff is required (e.g. --cutoff 2020-10-04)")
	}
	if _, err := utils.ParseCutoff(cutoff); err != nil {
		return err
	}

	if namespace != "" && !namespaceFlagRe.MatchString(namespace) {
		return fmt.Errorf("namespace may only contain letters, digits, '.', '_' and '-': %s", namespace)
	}

	if maxDuration < 0 {
		return fmt.Errorf("--max-duration must not be negative, got %d", maxDuration)
	}
	if checkpointInterval < 0 {
		return fmt.Errorf("--checkpoint-interval must not be negative, got %d", checkpointInterval)
	}

	return nil
}
