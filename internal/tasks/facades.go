package tasks

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"shift/internal/finder"
)

// FacadeAliasesName is the registry name of the facade alias rewriter.
const FacadeAliasesName = "facade-aliases"

const facadeReference = "https://laravel.com/docs/facades#facade-class-reference"

//go:embed aliases.toml
var builtinAliasesTOML string

var builtinAliases = mustDecodeAliases(builtinAliasesTOML)

func mustDecodeAliases(data string) map[string]string {
	var file struct {
		Aliases map[string]string `toml:"aliases"`
	}
	if _, err := toml.Decode(data, &file); err != nil {
		panic(fmt.Sprintf("tasks: invalid built-in alias table: %v", err))
	}
	return file.Aliases
}

// AliasTable returns the built-in facade aliases merged with overrides,
// keyed by lower-cased alias. An override mapping to an empty class removes
// the alias.
func AliasTable(overrides map[string]string) map[string]string {
	table := make(map[string]string, len(builtinAliases)+len(overrides))
	for alias, class := range builtinAliases {
		table[strings.ToLower(alias)] = class
	}
	for alias, class := range overrides {
		key := strings.ToLower(alias)
		class = strings.TrimLeft(strings.TrimSpace(class), `\`)
		if class == "" {
			delete(table, key)
			continue
		}
		table[key] = class
	}
	return table
}

// NewFacadeAliasesTask replaces references to global facade aliases with the
// class they stand for.
func NewFacadeAliasesTask(deps Deps) Task {
	aliases := finder.NewFacadeAliases(AliasTable(deps.Aliases))
	resolve := func(inst finder.Instance) string {
		class, _ := aliases.Resolve(inst.Symbol)
		return class
	}

	return &structuralTask{
		FileScope: NewFileScope(deps.Resolver),
		name:      FacadeAliasesName,
		finder:    aliases,
		replace:   resolve,
		describe: func(inst finder.Instance) string {
			return fmt.Sprintf("Line %d: replaced alias `%s` with `%s`", inst.Line, inst.Symbol, resolve(inst))
		},
		reference: facadeReference,
		deps:      deps,
	}
}
