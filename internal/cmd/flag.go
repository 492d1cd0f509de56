package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type commandLineFlag struct {
	name, shorthand, defaultValue, usage string
	required                             bool
	isBool                               bool
	// bindKey is the config key the flag overrides, if any.
	bindKey string
}

var (
	configFlag = commandLineFlag{
		name:      "config",
		shorthand: "c",
		usage:     "config file (default is $XDG_CONFIG_HOME/athenahistory/config.yaml)",
	}
	envFileFlag = commandLineFlag{
		name:  "env-file",
		usage: "dotenv file loaded before reading the environment",
	}
	quietFlag = commandLineFlag{
		name:      "quiet",
		shorthand: "q",
		usage:     "suppress log output",
		isBool:    true,
	}
	debugFlag = commandLineFlag{
		name:    "debug",
		usage:   "enable debug logging",
		isBool:  true,
		bindKey: "debug",
	}
	historyURIFlag = commandLineFlag{
		name:    "history-uri",
		usage:   "destination of history log objects (s3://bucket/prefix)",
		bindKey: "history_uri",
	}
	checkpointURIFlag = commandLineFlag{
		name:    "checkpoint-uri",
		usage:   "checkpoint object (s3://bucket/key)",
		bindKey: "checkpoint_uri",
	}
	regionFlag = commandLineFlag{
		name:      "region",
		shorthand: "r",
		usage:     "Athena region",
		bindKey:   "region",
	}
	workgroupFlag = commandLineFlag{
		name:      "workgroup",
		shorthand: "w",
		usage:     "only export executions of this workgroup",
		bindKey:   "workgroup",
	}
	dryRunFlag = commandLineFlag{
		name:   "dry-run",
		usage:  "scan and serialize without writing logs or the checkpoint",
		isBool: true,
	}
	scheduleFlag = commandLineFlag{
		name:      "schedule",
		shorthand: "s",
		usage:     "cron expression or descriptor (default @hourly)",
		bindKey:   "schedule",
	}
)

// baseFlags are accepted by every command that reads the configuration.
var baseFlags = []commandLineFlag{configFlag, envFileFlag, quietFlag, debugFlag}

func initFlags(cmd *cobra.Command, flags ...commandLineFlag) {
	for _, flag := range flags {
		if flag.isBool {
			cmd.Flags().BoolP(flag.name, flag.shorthand, flag.defaultValue == "true", flag.usage)
		} else {
			cmd.Flags().StringP(flag.name, flag.shorthand, flag.defaultValue, flag.usage)
		}
		if flag.required {
			if err := cmd.MarkFlagRequired(flag.name); err != nil {
				fmt.Printf("failed to mark flag %s as required: %v\n", flag.name, err)
			}
		}
	}
}

// bindFlags lets flags that were set on the command line override their
// config keys.
func bindFlags(v *viper.Viper, cmd *cobra.Command, flags ...commandLineFlag) error {
	for _, flag := range flags {
		if flag.bindKey == "" {
			continue
		}
		f := cmd.Flags().Lookup(flag.name)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(flag.bindKey, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flag.name, err)
		}
	}
	return nil
}
