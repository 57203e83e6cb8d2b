package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ernie/otbcore/internal/otb"
)

// cliItemList is the CLI's own JSON input shape for "otbtool write" —
// deliberately separate from otb.ServerItemList so the core model never
// needs json tags for a debug/scripting entry point.
type cliItemList struct {
	Version     cliVersion `json:"version"`
	Description string     `json:"description"`
	Items       []cliItem  `json:"items"`
}

type cliVersion struct {
	Major         uint32 `json:"major"`
	Minor         uint32 `json:"minor"`
	Build         uint32 `json:"build"`
	ClientVersion uint32 `json:"clientVersion"`
}

type cliItem struct {
	ServerID uint16       `json:"serverId"`
	ClientID uint16       `json:"clientId"`
	Type     string       `json:"type"`
	Name     string       `json:"name"`
	Flags    otb.Booleans `json:"flags"`
	Ground   uint16       `json:"groundSpeed"`
}

func runWrite(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: otbtool write <items.json> <path.otb>")
	}
	jsonPath, outPath := args[0], args[1]

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return err
	}
	var in cliItemList
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("parse %s: %w", jsonPath, err)
	}

	list := otb.NewServerItemList()
	list.Version = otb.VersionInfo{
		Major: in.Version.Major, Minor: in.Version.Minor,
		Build: in.Version.Build, ClientVersion: in.Version.ClientVersion,
	}
	list.Description = in.Description

	for _, ci := range in.Items {
		typ, err := parseItemType(ci.Type)
		if err != nil {
			return err
		}
		it := &otb.ServerItem{
			ServerID:    ci.ServerID,
			ClientID:    ci.ClientID,
			Type:        typ,
			Name:        ci.Name,
			Booleans:    ci.Flags,
			GroundSpeed: ci.Ground,
		}
		it.SyncFlagsFromBooleans()
		if err := list.Add(it); err != nil {
			return fmt.Errorf("item %d: %w", ci.ServerID, err)
		}
	}

	if err := otb.Write(outPath, list, otb.WriteOptions{}); err != nil {
		return err
	}
	fmt.Printf("wrote %d items to %s\n", list.Len(), outPath)
	return nil
}

func parseItemType(s string) (otb.ServerItemType, error) {
	switch s {
	case "", "none":
		return otb.TypeNone, nil
	case "ground":
		return otb.TypeGround, nil
	case "container":
		return otb.TypeContainer, nil
	case "splash":
		return otb.TypeSplash, nil
	case "fluid":
		return otb.TypeFluid, nil
	case "deprecated":
		return otb.TypeDeprecated, nil
	default:
		return 0, fmt.Errorf("unknown item type %q", s)
	}
}
