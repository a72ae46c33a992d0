package cmd

import (
	"bufio"
	"cmp"
	"flag"
	"fmt"
	"io"
	"maps"
	"regexp"
	"slices"
	"strings"
)

type CLI struct {
	*flag.FlagSet
	currentGroup   string
	groupForOption map[string]string // option -> group name
}

var (
	// All known options *must* be here but there can be repeated sort values
	priority = map[string]int{
		"operation-selection": 1,
		"data-source":         2,
		"data-target":         3,
		"plot-output":         4,
		"server":              5,
		"development":         8,
	}
)

func NewCLI(verb string, command Command, name string, out io.Writer) *CLI {
	cli := &CLI{
		FlagSet:        flag.NewFlagSet(name, flag.ContinueOnError),
		groupForOption: make(map[string]string),
	}
	cli.FlagSet.SetOutput(out)
	cli.FlagSet.Usage = func() {
		restargs := ""
		if ra, ok := command.(SetRestArgumentsAPI); ok {
			restargs = " " + ra.RestArgumentsHelp()
		}
		fmt.Fprintf(out, "Usage: %s %s [options]%s\n\n  ", name, verb, restargs)
		command.Summary(out)
		fmt.Fprintln(out)
		for _, g := range cli.getSortedDefaults() {
			fmt.Fprintf(out, "\n%s options:\n\n", g.group)
			for _, l := range g.text {
				fmt.Fprintln(out, l)
			}
		}
	}
	return cli
}

// Call Group to tag subsequent options with the logical group they belong to, so that when help is
// printed, the options in the same group are presented together.

func (cli *CLI) Group(name string) {
	if _, found := priority[name]; !found {
		panic(fmt.Sprintf("Unknown group %s", name))
	}
	cli.currentGroup = name
}

func (cli *CLI) BoolVar(v *bool, name string, def bool, usage string) {
	cli.tag(name)
	cli.FlagSet.BoolVar(v, name, def, usage)
}

func (cli *CLI) StringVar(v *string, name string, def string, usage string) {
	cli.tag(name)
	cli.FlagSet.StringVar(v, name, def, usage)
}

func (cli *CLI) Var(value flag.Value, name string, usage string) {
	cli.tag(name)
	cli.FlagSet.Var(value, name, usage)
}

func (cli *CLI) tag(option string) {
	if cli.currentGroup == "" {
		panic(fmt.Sprintf("No option group set when registering option %s", option))
	}
	if cli.groupForOption[option] != "" {
		panic(fmt.Sprintf("Multiple groups for option %s: %s and %s",
			option, cli.groupForOption[option], cli.currentGroup))
	}
	cli.groupForOption[option] = cli.currentGroup
}

type defaultGroup struct {
	group string
	text  []string
}

func (cli *CLI) getSortedDefaults() []defaultGroup {
	defaults := slices.Collect(maps.Values(cli.parseDefaults()))
	slices.SortFunc(defaults, func(a, b defaultGroup) int {
		aPri := priority[a.group]
		bPri := priority[b.group]
		if aPri == bPri {
			return cmp.Compare(a.group, b.group)
		}
		return aPri - bPri
	})
	return defaults
}

// Run PrintDefaults, parse the output, and group the options.  This ensures consistent formatting
// with the flag package with minimum fuss.

func (cli *CLI) parseDefaults() map[string]defaultGroup {
	out := cli.FlagSet.Output()
	defer cli.FlagSet.SetOutput(out)
	var tmp strings.Builder
	cli.FlagSet.SetOutput(&tmp)
	cli.FlagSet.PrintDefaults()

	scanner := bufio.NewScanner(strings.NewReader(tmp.String()))
	defaults := make(map[string]defaultGroup, 0)
	currentOption := ""
	var optionText []string
	for scanner.Scan() {
		s := scanner.Text()
		if m := optRe.FindStringSubmatch(s); m != nil {
			cli.extendGroup(defaults, currentOption, optionText)
			currentOption = m[1]
			optionText = nil
		}
		optionText = append(optionText, s)
	}
	cli.extendGroup(defaults, currentOption, optionText)
	return defaults
}

func (cli *CLI) extendGroup(
	defaults map[string]defaultGroup,
	currentOption string,
	optionText []string,
) {
	if currentOption != "" {
		group := cli.groupForOption[currentOption]
		if group == "" {
			panic(fmt.Sprintf("No group for option %s", currentOption))
		}
		d, found := defaults[group]
		if !found {
			d.group = group
		}
		d.text = append(d.text, optionText...)
		defaults[group] = d
	}
}

var optRe = regexp.MustCompile(`^  -(\S+)`)
