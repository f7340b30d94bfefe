package catalog

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Rule assigns types to Category when Expr evaluates to true. Rules are tried
// in order and the first match wins.
//
// Expressions see typeID, groupID, categoryID and typeName plus every field
// of the type record under its own name and as the map "type".
type Rule struct {
	Category string `toml:"name"`
	Expr     string `toml:"rule"`
}

type compiledRule struct {
	category string
	program  *vm.Program
}

func nameHasAny(words ...string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = fmt.Sprintf("%q", w)
	}
	return "any([" + strings.Join(quoted, ", ") + "], {typeName contains #})"
}

// DefaultRules reproduces the name and group heuristics used for EVE Frontier
// static data.
func DefaultRules() []Rule {
	return []Rule{
		{Category: CategoryShips, Expr: "groupID in [25, 26, 31, 237, 419, 420]"},
		{Category: CategoryBlueprints, Expr: `typeName contains "Blueprint"`},
		{Category: "ores", Expr: nameHasAny("Ore", "Mineral", "Young Crude", "Feral Echo", "Salvaged", "Aestasium")},
		{Category: "fuel", Expr: nameHasAny("Fuel", "SOF", "Smart Fuel")},
		{Category: "ammo", Expr: nameHasAny("Charge", "Missile", "Ammo", "Round")},
		{Category: "modules", Expr: nameHasAny("Disintegrator", "Beam", "Torpedo", "Launcher", "Turret", "Cannon", "Blaster", "Railgun", "Artillery")},
		{Category: "modules", Expr: nameHasAny("Field Array", "Shield", "Armor", "Hull Repair", "Hardener", "Repairer", "Plates")},
		{Category: "modules", Expr: nameHasAny("Afterburner", "Microwarpdrive", "MWD", "Engine", "Propulsion", "Thruster")},
		{Category: "modules", Expr: nameHasAny("Sensor", "Scanner", "Scrambler", "Disruptor", "Web", "ECM", "ECCM", "Tracking", "Target")},
		{Category: "modules", Expr: nameHasAny("Mining Lens", "Mining Gel", "Miner", "Strip", "Harvester", "Tractor", "Cargo Grid")},
	}
}

var ruleEnvTypes = map[string]any{
	"typeID":     0,
	"groupID":    0,
	"categoryID": 0,
	"typeName":   "",
	"type":       map[string]any{},
}

func compileRules(rules []Rule) ([]compiledRule, error) {
	out := make([]compiledRule, 0, len(rules))
	for i, r := range rules {
		name := strings.TrimSpace(r.Category)
		if name == "" {
			return nil, fmt.Errorf("%w: rule %d has no category", ErrBadRule, i)
		}
		if name == CategoryComponents || name == CategoryMaterials {
			return nil, fmt.Errorf("%w: %s is assigned from the blueprint graph", ErrBadRule, name)
		}
		program, err := expr.Compile(r.Expr,
			expr.Env(ruleEnvTypes),
			expr.AllowUndefinedVariables(),
			expr.AsBool(),
		)
		if err != nil {
			return nil, fmt.Errorf("%w: %s rule %d: %v", ErrBadRule, name, i, err)
		}
		out = append(out, compiledRule{category: name, program: program})
	}
	return out, nil
}

func (r compiledRule) match(env map[string]any) (bool, error) {
	out, err := expr.Run(r.program, env)
	if err != nil {
		return false, fmt.Errorf("catalog: %s rule: %w", r.category, err)
	}
	ok, _ := out.(bool)
	return ok, nil
}

func ruleEnv(id int64, rec Record) map[string]any {
	env := make(map[string]any, len(rec)+len(ruleEnvTypes))
	for k, v := range rec {
		env[k] = v
	}
	env["type"] = rec
	env["typeID"] = int(id)
	env["groupID"] = intField(rec, "groupID")
	env["categoryID"] = intField(rec, "categoryID")
	name, _ := rec["typeName"].(string)
	env["typeName"] = name
	return env
}

func intField(rec Record, name string) int {
	v, _ := toInt64(rec[name])
	return int(v)
}
