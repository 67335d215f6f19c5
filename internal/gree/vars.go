package gree

import (
	"fmt"
	"strings"
)

// Variable is a symbolic device property such as power state.
type Variable uint8

// Variables documented for Gree LAN protocol version 1.
const (
	Pow Variable = iota
	Mod
	SetTem
	TemUn
	TemRec
	WdSpd
	Air
	Blo
	Health
	SwSlp
	Lig
	SwLfRig
	SwUpDn
	Quiet
	Tur
	StHt
	HeatCoolType
	TemSen
	SvSt

	numVariables
)

type varDef struct {
	token string // symbolic token, e.g. "POW"
	wire  string // on-wire field name, e.g. "Pow"
	desc  string
}

// registry is indexed by Variable. A zero entry is a gap and fails init.
var registry = [numVariables]varDef{
	Pow:          {token: "POW", wire: "Pow", desc: "power state (0 off, 1 on)"},
	Mod:          {token: "MOD", wire: "Mod", desc: "mode (0 auto, 1 cool, 2 dry, 3 fan, 4 heat)"},
	SetTem:       {token: "SET_TEM", wire: "SetTem", desc: "target temperature"},
	TemUn:        {token: "TEM_UN", wire: "TemUn", desc: "temperature unit (0 celsius, 1 fahrenheit)"},
	TemRec:       {token: "TEM_REC", wire: "TemRec", desc: "fahrenheit rounding bit"},
	WdSpd:        {token: "WD_SPD", wire: "WdSpd", desc: "fan speed (0 auto, 1..5)"},
	Air:          {token: "AIR", wire: "Air", desc: "fresh air valve"},
	Blo:          {token: "BLO", wire: "Blo", desc: "x-fan blow dry"},
	Health:       {token: "HEALTH", wire: "Health", desc: "cold plasma"},
	SwSlp:        {token: "SW_SLP", wire: "SwhSlp", desc: "sleep mode"},
	Lig:          {token: "LIG", wire: "Lig", desc: "display light"},
	SwLfRig:      {token: "SW_LF_RIG", wire: "SwingLfRig", desc: "horizontal swing"},
	SwUpDn:       {token: "SW_UP_DN", wire: "SwUpDn", desc: "vertical swing"},
	Quiet:        {token: "QUIET", wire: "Quiet", desc: "quiet mode"},
	Tur:          {token: "TUR", wire: "Tur", desc: "turbo mode"},
	StHt:         {token: "ST_HT", wire: "StHt", desc: "keep 8C heating"},
	HeatCoolType: {token: "HEAT_COOL_TYPE", wire: "HeatCoolType", desc: "heat/cool capability"},
	TemSen:       {token: "TEM_SEN", wire: "TemSen", desc: "room temperature sensor"},
	SvSt:         {token: "SV_ST", wire: "SvSt", desc: "energy saving"},
}

// byName maps lower-cased tokens and wire names to variables. Built once at init.
var byName map[string]Variable

func init() {
	byName = make(map[string]Variable, 2*len(registry))
	for i, def := range registry {
		if def.token == "" || def.wire == "" {
			panic(fmt.Sprintf("gree: variable %d has no registry entry", i))
		}
		v := Variable(i)
		for _, name := range []string{def.token, def.wire} {
			key := strings.ToLower(name)
			if prev, dup := byName[key]; dup && prev != v {
				panic(fmt.Sprintf("gree: name %q registered twice", name))
			}
			byName[key] = v
		}
	}
}

// Valid reports whether v is a registered variable.
func (v Variable) Valid() bool {
	return v < numVariables
}

// Wire returns the on-wire field name, e.g. "Pow".
func (v Variable) Wire() string {
	if !v.Valid() {
		return ""
	}
	return registry[v].wire
}

// String returns the symbolic token, e.g. "POW".
func (v Variable) String() string {
	if !v.Valid() {
		return fmt.Sprintf("Variable(%d)", uint8(v))
	}
	return registry[v].token
}

// Description returns a short human-readable meaning of the variable.
func (v Variable) Description() string {
	if !v.Valid() {
		return ""
	}
	return registry[v].desc
}

// ParseVariable resolves a symbolic token ("SET_TEM") or a wire name
// ("SetTem"). Matching is case-insensitive.
func ParseVariable(s string) (Variable, error) {
	if v, ok := byName[strings.ToLower(strings.TrimSpace(s))]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("%w: unknown variable %q", ErrInvalidRequest, s)
}

// Variables returns every registered variable in declaration order.
func Variables() []Variable {
	out := make([]Variable, numVariables)
	for i := range out {
		out[i] = Variable(i)
	}
	return out
}

// wireNames maps vars to their wire names, rejecting unregistered values.
func wireNames(vars []Variable) ([]string, error) {
	names := make([]string, len(vars))
	for i, v := range vars {
		if !v.Valid() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, v)
		}
		names[i] = v.Wire()
	}
	return names, nil
}
