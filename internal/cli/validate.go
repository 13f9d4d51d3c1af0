package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/terramuse/videocheck/internal/dsl"
	"github.com/terramuse/videocheck/internal/verify"
)

// NewValidateCmd creates a new validate command
func NewValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [file_or_directory]...",
		Short: "Validate check files without opening a browser",
		Long: `Validate one or more check files against the JSON schema, render their
templates and check every resulting check. No browser is started.

Examples:
  videocheck validate checks.yaml              # Validate a single file
  videocheck validate ./checks/                # Validate all YAML files in a directory
  videocheck validate a.yaml b.yaml            # Validate multiple files`,
		Args: cobra.MinimumNArgs(1),
		RunE: runValidate,
	}

	cmd.Flags().StringToStringP("var", "v", nil, "Set check file variables (can be used multiple times)")

	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	cliVars, err := cmd.Flags().GetStringToString("var")
	if err != nil {
		return fmt.Errorf("failed to get var flags: %w", err)
	}
	envFile, _ := cmd.Flags().GetString("env-file")
	fileEnv, err := applyEnvFile(envFile)
	if err != nil {
		return err
	}
	opts := dsl.LoadOptions{Vars: cliVars, Env: fileEnv}

	var files []string
	totalValid := 0
	totalInvalid := 0

	for _, arg := range args {
		stat, err := os.Stat(arg)
		if err != nil {
			Logger.Error("failed to access path", "path", arg, "error", err)
			totalInvalid++
			continue
		}

		if stat.IsDir() {
			err := filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if !info.IsDir() && (filepath.Ext(path) == ".yaml" || filepath.Ext(path) == ".yml") {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				Logger.Error("failed to scan directory", "path", arg, "error", err)
				totalInvalid++
				continue
			}
		} else {
			files = append(files, arg)
		}
	}

	if len(files) == 0 && totalInvalid == 0 {
		return fmt.Errorf("no YAML files found to validate")
	}

	Logger.Info("validating files", "count", len(files))

	for _, file := range files {
		if err := validateFile(file, opts); err != nil {
			Logger.Error("validation failed", "file", file, "error", err)
			totalInvalid++
		} else {
			Logger.Info("validation passed", "file", file)
			totalValid++
		}
	}

	Logger.Info("validation complete", "valid", totalValid, "invalid", totalInvalid, "total", len(files))

	if totalInvalid > 0 {
		return fmt.Errorf("validation failed for %d path(s)", totalInvalid)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✅ All %d file(s) passed validation\n", totalValid)
	return nil
}

func validateFile(filePath string, opts dsl.LoadOptions) error {
	cf, err := dsl.LoadFile(filePath, opts)
	if err != nil {
		return err
	}

	for _, check := range cf.ToChecks(verify.DefaultCheck()) {
		if err := check.Validate(); err != nil {
			return fmt.Errorf("check %q: %w", check.Name, err)
		}
	}

	Logger.Debug("file details",
		"name", cf.Name,
		"checks", len(cf.Checks),
		"description", cf.Description,
	)

	return nil
}
