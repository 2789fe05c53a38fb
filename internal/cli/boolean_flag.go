package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	booleanFlagTypeName               = "bool"
	booleanFlagTrueLiteral            = "true"
	booleanFlagAcceptedValuesListing  = "true, false, yes, no, on, off, 1, 0"
	booleanFlagInvalidValueErrorLabel = "invalid boolean value"
)

var booleanFlagLiterals = map[string]bool{
	"true":  true,
	"t":     true,
	"1":     true,
	"yes":   true,
	"y":     true,
	"on":    true,
	"false": false,
	"f":     false,
	"0":     false,
	"no":    false,
	"n":     false,
	"off":   false,
}

// booleanFlag is a tri-state flag: unset, true, or false.
// An unset flag defers to the configuration file.
type booleanFlag struct {
	name     string
	value    bool
	explicit bool
}

func (flag *booleanFlag) Set(input string) error {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		normalized = booleanFlagTrueLiteral
	}
	parsed, ok := booleanFlagLiterals[normalized]
	if !ok {
		return fmt.Errorf("%s %q for --%s; accepted values: %s", booleanFlagInvalidValueErrorLabel, input, flag.name, booleanFlagAcceptedValuesListing)
	}
	flag.value = parsed
	flag.explicit = true
	return nil
}

func (flag *booleanFlag) String() string {
	if flag == nil {
		return "false"
	}
	return strconv.FormatBool(flag.value)
}

func (flag *booleanFlag) Type() string {
	return booleanFlagTypeName
}

// resolve returns the flag value when given on the command line, then the configured value, then fallback.
func (flag *booleanFlag) resolve(configured *bool, fallback bool) bool {
	if flag != nil && flag.explicit {
		return flag.value
	}
	if configured != nil {
		return *configured
	}
	return fallback
}

func registerBooleanFlag(flagSet *pflag.FlagSet, name string, usage string) *booleanFlag {
	flag := &booleanFlag{name: name}
	if flagSet == nil {
		return flag
	}
	flagSet.Var(flag, name, usage)
	if lookup := flagSet.Lookup(name); lookup != nil {
		lookup.DefValue = "false"
		lookup.NoOptDefVal = booleanFlagTrueLiteral
	}
	return flag
}

// normalizeBooleanFlagArguments rewrites "--flag value" into "--flag=value" when value is a boolean literal,
// so a bare boolean flag never swallows the repository URL that follows it.
func normalizeBooleanFlagArguments(command *cobra.Command, arguments []string) []string {
	if command == nil || len(arguments) == 0 {
		return arguments
	}
	booleanFlags := map[string]struct{}{}
	collectBooleanFlagNames(command, booleanFlags)
	if len(booleanFlags) == 0 {
		return arguments
	}
	normalized := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		currentArgument := arguments[index]
		if currentArgument == "--" {
			normalized = append(normalized, arguments[index:]...)
			break
		}
		if strings.HasPrefix(currentArgument, "--") && !strings.Contains(currentArgument, "=") && index+1 < len(arguments) {
			flagName := strings.TrimPrefix(currentArgument, "--")
			if _, exists := booleanFlags[flagName]; exists {
				literal := strings.ToLower(strings.TrimSpace(arguments[index+1]))
				if _, valid := booleanFlagLiterals[literal]; valid {
					normalized = append(normalized, fmt.Sprintf("--%s=%s", flagName, arguments[index+1]))
					index++
					continue
				}
			}
		}
		normalized = append(normalized, currentArgument)
	}
	return normalized
}

func collectBooleanFlagNames(command *cobra.Command, target map[string]struct{}) {
	visit := func(flagSet *pflag.FlagSet) {
		flagSet.VisitAll(func(flag *pflag.Flag) {
			if flag.Value != nil && flag.Value.Type() == booleanFlagTypeName {
				target[flag.Name] = struct{}{}
			}
		})
	}
	visit(command.PersistentFlags())
	visit(command.Flags())
	for _, child := range command.Commands() {
		collectBooleanFlagNames(child, target)
	}
}
