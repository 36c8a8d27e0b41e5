package cmd

import (
	"fmt"
	"strconv"
	"strings"
)

// Parser parses user-defined arguments into flags
type Parser struct {
	flagSet *CommandFlagSet
}

func NewParser(flagSet *CommandFlagSet) *Parser {
	if flagSet == nil {
		flagSet = &CommandFlagSet{Flags: make(map[string]*CommandFlag)}
	}

	return &Parser{
		flagSet: flagSet,
	}
}

func (cp *Parser) Parse(raw []string) (*CommandArgs, error) {
	args := &CommandArgs{
		Flags: make(map[string]any),
		Raw:   raw,
	}

	for flagName, flag := range cp.flagSet.Flags {
		if flag.Default != nil {
			args.Flags[flagName] = flag.Default
		}
	}

	longToName := make(map[string]string)
	shortToName := make(map[string]string)
	for flagName, flag := range cp.flagSet.Flags {
		longToName[flag.Name] = flagName
		if flag.Short != "" {
			shortToName[flag.Short] = flagName
		}
	}

	explicit := make(map[string]bool)
	set := func(flagName, value string) error {
		flag := cp.flagSet.Flags[flagName]
		v, err := coerce(value, flag.Type)
		if err != nil {
			return fmt.Errorf("invalid value for --%s: %w", flag.Name, err)
		}

		if flag.Multiple {
			var values []string
			if explicit[flagName] {
				values, _ = args.Flags[flagName].([]string)
			}
			args.Flags[flagName] = append(values, value)
		} else {
			args.Flags[flagName] = v
		}

		explicit[flagName] = true
		return nil
	}

	for i := 0; i < len(raw); i++ {
		arg := raw[i]

		if arg == "--" {
			args.Args = append(args.Args, raw[i+1:]...)
			break
		}

		if strings.HasPrefix(arg, "--") {
			key, value, hasValue := parseLongFlag(arg)
			flagName, exists := longToName[key]
			if !exists {
				return nil, fmt.Errorf("unknown flag: --%s", key)
			}

			flag := cp.flagSet.Flags[flagName]
			switch {
			case flag.Type == "bool" && !hasValue:
				args.Flags[flagName] = true
				explicit[flagName] = true
			case hasValue:
				if err := set(flagName, value); err != nil {
					return nil, err
				}
			case i+1 < len(raw) && !strings.HasPrefix(raw[i+1], "-"):
				if err := set(flagName, raw[i+1]); err != nil {
					return nil, err
				}
				i++
			default:
				return nil, fmt.Errorf("flag --%s requires a value", key)
			}
			continue
		}

		if strings.HasPrefix(arg, "-") && len(arg) > 1 {
			shortFlags := arg[1:]

			for j, shortChar := range shortFlags {
				shortStr := string(shortChar)
				flagName, exists := shortToName[shortStr]
				if !exists {
					return nil, fmt.Errorf("unknown flag: -%s", shortStr)
				}

				flag := cp.flagSet.Flags[flagName]
				if flag.Type == "bool" {
					args.Flags[flagName] = true
					explicit[flagName] = true
					continue
				}

				// A value either follows the flag directly or as the next argument
				var value string
				if j+1 < len(shortFlags) {
					value = shortFlags[j+1:]
				} else if i+1 < len(raw) && !strings.HasPrefix(raw[i+1], "-") {
					value = raw[i+1]
					i++
				} else {
					return nil, fmt.Errorf("flag -%s requires a value", shortStr)
				}

				if err := set(flagName, value); err != nil {
					return nil, err
				}
				break
			}
			continue
		}

		args.Args = append(args.Args, arg)
	}

	for flagName, flag := range cp.flagSet.Flags {
		if flag.Required && !explicit[flagName] {
			if flag.Short != "" {
				return nil, fmt.Errorf("required flag: -%s / --%s", flag.Short, flag.Name)
			}
			return nil, fmt.Errorf("required flag: --%s", flag.Name)
		}
	}

	return args, nil
}

func parseLongFlag(arg string) (key, value string, hasValue bool) {
	arg = strings.TrimPrefix(arg, "--")
	if idx := strings.Index(arg, "="); idx >= 0 {
		return arg[:idx], arg[idx+1:], true
	}
	return arg, "", false
}

func coerce(value string, typeStr string) (any, error) {
	switch typeStr {
	case "int":
		return strconv.ParseInt(value, 10, 64)
	case "bool":
		return strconv.ParseBool(value)
	default:
		return value, nil
	}
}

// SplitLine splits a command line into arguments. Single and double quotes
// group words; a quote of the other kind is kept literally.
func SplitLine(line string) ([]string, error) {
	var args []string
	var current strings.Builder
	inQuote := false
	inWord := false
	quoteChar := rune(0)

	for _, ch := range line {
		switch {
		case ch == '"' || ch == '\'':
			if inQuote {
				if ch == quoteChar {
					inQuote = false
					quoteChar = 0
				} else {
					current.WriteRune(ch)
				}
			} else {
				inQuote = true
				quoteChar = ch
			}
			inWord = true

		case (ch == ' ' || ch == '\t') && !inQuote:
			if inWord {
				args = append(args, current.String())
				current.Reset()
				inWord = false
			}

		default:
			current.WriteRune(ch)
			inWord = true
		}
	}

	if inQuote {
		return nil, fmt.Errorf("unterminated quote %q", quoteChar)
	}
	if inWord {
		args = append(args, current.String())
	}

	return args, nil
}
