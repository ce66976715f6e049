package model

import (
	"slices"
	"strings"
)

// ConstantList names one of the enumerations in the constants set.
type ConstantList string

const (
	ListLoadPorts  ConstantList = "VALID_LOAD_PORTS"
	ListDestPorts  ConstantList = "VALID_DEST_PORTS"
	ListContainers ConstantList = "VALID_CONTAINERS"
	ListDTHC       ConstantList = "VALID_DTHC"
)

// ConstantLists in display order.
var ConstantLists = []ConstantList{ListLoadPorts, ListDestPorts, ListContainers, ListDTHC}

func (l ConstantList) String() string { return string(l) }

// Label is the short name used in prompts.
func (l ConstantList) Label() string {
	switch l {
	case ListLoadPorts:
		return "load port"
	case ListDestPorts:
		return "destination port"
	case ListContainers:
		return "container type"
	case ListDTHC:
		return "DTHC"
	default:
		return string(l)
	}
}

// ParseConstantList accepts the file key or a short alias such as "load-ports" or "dthc".
func ParseConstantList(s string) (ConstantList, bool) {
	n := strings.ToUpper(strings.NewReplacer("-", "_", " ", "_").Replace(strings.TrimSpace(s)))
	n = strings.TrimPrefix(n, "VALID_")
	switch n {
	case "LOAD_PORTS", "LOAD_PORT", "POL":
		return ListLoadPorts, true
	case "DEST_PORTS", "DESTINATION_PORTS", "DEST_PORT", "POD":
		return ListDestPorts, true
	case "CONTAINERS", "CONTAINER", "CONTAINER_TYPES":
		return ListContainers, true
	case "DTHC":
		return ListDTHC, true
	default:
		return "", false
	}
}

// Constants holds the valid values for the enumerated record fields.
type Constants struct {
	LoadPorts  []string `json:"VALID_LOAD_PORTS"`
	DestPorts  []string `json:"VALID_DEST_PORTS"`
	Containers []string `json:"VALID_CONTAINERS"`
	DTHC       []string `json:"VALID_DTHC"`
}

// DefaultConstants is used when no constants file exists.
func DefaultConstants() Constants {
	return Constants{
		LoadPorts:  []string{"MELBOURNE", "SYDNEY", "BRISBANE"},
		DestPorts:  []string{"TAICHUNG", "SHANGHAI", "NINGBO", "SHEKOU", "TOKYO"},
		Containers: []string{"20GP", "40GP", "40HC", "20RE", "40REHC"},
		DTHC:       []string{"COLLECT", "PREPAID"},
	}
}

func (c *Constants) list(l ConstantList) *[]string {
	switch l {
	case ListLoadPorts:
		return &c.LoadPorts
	case ListDestPorts:
		return &c.DestPorts
	case ListContainers:
		return &c.Containers
	case ListDTHC:
		return &c.DTHC
	default:
		return nil
	}
}

// Values returns a copy of one enumeration.
func (c Constants) Values(l ConstantList) []string {
	p := c.list(l)
	if p == nil {
		return nil
	}
	return slices.Clone(*p)
}

// Contains matches case-insensitively.
func (c Constants) Contains(l ConstantList, v string) bool {
	p := c.list(l)
	if p == nil {
		return false
	}
	return slices.ContainsFunc(*p, func(s string) bool { return strings.EqualFold(s, v) })
}

// Add appends v to l and reports whether it was new.
func (c *Constants) Add(l ConstantList, v string) bool {
	p := c.list(l)
	if p == nil || v == "" || c.Contains(l, v) {
		return false
	}
	*p = append(*p, v)
	return true
}

// UnknownValue is a record field value missing from its enumeration.
type UnknownValue struct {
	List  ConstantList
	Value string
}

// Unknown lists the enumerated fields of r that fall outside c.
func (c Constants) Unknown(r Record) []UnknownValue {
	var out []UnknownValue
	check := func(l ConstantList, v string) {
		if !c.Contains(l, v) {
			out = append(out, UnknownValue{List: l, Value: v})
		}
	}
	check(ListLoadPorts, r.LoadPort)
	check(ListDestPorts, r.DestinationPort)
	check(ListContainers, r.ContainerType)
	check(ListDTHC, r.DTHC)
	return out
}
