package config

import (
	"fmt"
	"os"
)

func Template() string {
	return fsdctlTemplate
}

func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(fsdctlTemplate), 0o600)
}

const fsdctlTemplate = `# Directory holding resfileindex.txt. ResFiles is expected next to it.
game_path = "/path/to/eve-frontier/stillness"
# resfiles_path = "/path/to/eve-frontier/ResFiles"
# index_file = "/path/to/eve-frontier/stillness/resfileindex.txt"

output_dir = "extracted_data"
schema_dir = "schemas"
format = "json"
indent = 2
workers = 4
keep_intermediate = false
max_depth = 64
max_count = 16777216
# metrics_file = "extracted_data/fsdctl.prom"

[[resources]]
name = "types"
resource = "res:/staticdata/types.fsdbinary"

[[resources]]
name = "blueprints"
resource = "res:/staticdata/blueprints.static"

[[resources]]
name = "solarsystemcontent"
resource = "res:/staticdata/solarsystemcontent.static"
schema = "solarsystemcontent"
output = "solarsystemcontent.json"

[[categories]]
name = "ships"
rule = "groupID in [25, 26, 31, 237, 419, 420]"

[[categories]]
name = "blueprints"
rule = 'typeName contains "Blueprint"'

[[categories]]
name = "ores"
rule = 'any(["Ore", "Mineral", "Young Crude", "Feral Echo", "Salvaged", "Aestasium"], {typeName contains #})'

[[categories]]
name = "fuel"
rule = 'any(["Fuel", "SOF", "Smart Fuel"], {typeName contains #})'

[[categories]]
name = "ammo"
rule = 'any(["Charge", "Missile", "Ammo", "Round"], {typeName contains #})'

[[categories]]
name = "modules"
rule = 'any(["Disintegrator", "Beam", "Torpedo", "Launcher", "Turret", "Cannon", "Blaster", "Railgun", "Artillery", "Field Array", "Shield", "Armor", "Hull Repair", "Hardener", "Repairer", "Plates"], {typeName contains #})'

[[categories]]
name = "modules"
rule = 'any(["Afterburner", "Microwarpdrive", "MWD", "Engine", "Propulsion", "Thruster", "Sensor", "Scanner", "Scrambler", "Disruptor", "Web", "ECM", "ECCM", "Tracking", "Target", "Mining Lens", "Mining Gel", "Miner", "Strip", "Harvester", "Tractor", "Cargo Grid"], {typeName contains #})'
`
