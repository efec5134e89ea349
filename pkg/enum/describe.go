package enum

import (
	"fmt"
	"strings"

	"github.com/gregLibert/desfire-audit/pkg/desfire"
	"github.com/gregLibert/desfire-audit/pkg/tlv"
)

// Describe renders the report as an indented text block.
func (r *Report) Describe() string {
	var sb strings.Builder

	sb.WriteString("=== DESFIRE ENUMERATION REPORT ===\n")
	sb.WriteString("[PICC] Card master context\n")
	writeRecord(&sb, &r.PICC)

	sb.WriteString(fmt.Sprintf("\n[=] Applications: %d\n", len(r.Applications)))
	for i := range r.Applications {
		app := &r.Applications[i]
		sb.WriteString(fmt.Sprintf("\n[App %d/%d] AID %s\n", i+1, len(r.Applications), app.AID))
		writeRecord(&sb, app)
	}

	return sb.String()
}

// Describe renders the card identity as an indented text block.
func (c *CardInfo) Describe() string {
	var sb strings.Builder

	sb.WriteString("=== DESFIRE CARD INFORMATION ===\n")

	if v := c.Version; v != nil {
		sb.WriteString("[1] Version\n")
		sb.WriteString(fmt.Sprintf("    + UID:        %X\n", v.UID))
		sb.WriteString(fmt.Sprintf("    + Batch:      %X\n", v.Batch))
		sb.WriteString(fmt.Sprintf("    + Production: week %02X, 20%02X\n", v.ProductionWeek, v.ProductionYear))
		sb.WriteString(fmt.Sprintf("    + Card type:  %s\n", v.CardType()))
		writeVersionInfo(&sb, "Hardware", v.Hardware)
		writeVersionInfo(&sb, "Software", v.Software)
	} else {
		sb.WriteString("[1] Version: not available\n")
	}

	sb.WriteString("\n[2] Originality signature\n")
	switch {
	case c.Signature == nil:
		sb.WriteString("    - Not available\n")
	case c.Originality != nil:
		sb.WriteString(fmt.Sprintf("    + Signature:  %X\n", c.Signature))
		sb.WriteString(fmt.Sprintf("    + Public key: %s\n", c.Originality.Label))
		sb.WriteString("    + Curve:      secp224r1\n")
		sb.WriteString("    + Verified:   [OK]\n")
	default:
		sb.WriteString(fmt.Sprintf("    + Signature:  %X\n", c.Signature))
		sb.WriteString("    + Verified:   [!!] no known key matches\n")
	}

	sb.WriteString("\n[3] Card master context\n")
	writeRecord(&sb, &c.PICC)

	sb.WriteString("\n[4] Free memory\n")
	switch {
	case c.FreeMemory != nil:
		sb.WriteString(fmt.Sprintf("    + Available:  %d bytes\n", *c.FreeMemory))
	case c.FreeMemoryUnsupported:
		sb.WriteString("    - Not supported by this card\n")
	default:
		sb.WriteString("    - Not available\n")
	}

	writeFailures(&sb, c.Failures)
	return sb.String()
}

func writeVersionInfo(sb *strings.Builder, title string, v desfire.VersionInfo) {
	sb.WriteString(fmt.Sprintf("    + %s: vendor %02X, type %02X/%02X, v%d.%d, %s, protocol %02X\n",
		title, v.Vendor, v.Type, v.Subtype, v.Major, v.Minor, v.StorageString(), v.Protocol))
}

func writeRecord(sb *strings.Builder, rec *ApplicationRecord) {
	if rec.Name != nil {
		sb.WriteString(fmt.Sprintf("    + DF name:      %X (%q), ISO file %X\n",
			rec.Name.Name, tlv.MakeSafeASCII(rec.Name.Name), rec.Name.FileID))
	}

	if !rec.Selected {
		sb.WriteString("    - Not selected\n")
		writeFailures(sb, rec.Failures)
		return
	}

	if ks := rec.KeySettings; ks != nil {
		sb.WriteString(fmt.Sprintf("    + Key settings: %02X %02X\n", ks.Settings, ks.KeyCount))
		if !rec.AID.IsPICC() {
			rule, key := ks.ChangeKey()
			if rule == desfire.ChangeKeyWithSpecificKey {
				writeSetting(sb, "Change key", fmt.Sprintf("key %d", key))
			} else {
				writeSetting(sb, "Change key", rule.String())
			}
		}
		writeSetting(sb, "Config changeable", yesNo(ks.ConfigChangeable()))
		writeSetting(sb, "Create/delete", needsMasterKey(ks.CreateDeleteRequiresMasterKey()))
		writeSetting(sb, "Directory list", needsMasterKey(ks.DirectoryListRequiresMasterKey()))
		writeSetting(sb, "Master key changeable", yesNo(ks.MasterKeyChangeable()))
		writeSetting(sb, "Keys", fmt.Sprintf("%d (%s)", ks.MaxKeys(), ks.Cipher()))
	}

	for _, kv := range rec.KeyVersions {
		sb.WriteString(fmt.Sprintf("    + Key %d version: 0x%02X\n", kv.Index, kv.Version))
	}

	for _, r := range rec.Auth {
		if r.Err != nil {
			sb.WriteString(fmt.Sprintf("    - Auth %s: [!!] %v\n", r.Method, r.Err))
			continue
		}
		status := "[--] rejected"
		if r.Accepted() {
			status = "[OK] accepted"
		}
		sb.WriteString(fmt.Sprintf("    + Auth %s: %s (%04X)\n", r.Method, status, uint16(r.Status)))
	}

	if rec.FileIDs != nil {
		sb.WriteString(fmt.Sprintf("    + Files: %d\n", len(rec.FileIDs)))
	}
	for _, f := range rec.Files {
		line := fmt.Sprintf("      File 0x%02X: %X", f.FileID, f.Raw)
		if ft, ok := f.Type(); ok {
			line += fmt.Sprintf(" (%s)", ft)
		}
		if ar, ok := f.AccessRights(); ok {
			line += fmt.Sprintf(" access R%X W%X RW%X C%X", ar>>12, (ar>>8)&0xF, (ar>>4)&0xF, ar&0xF)
		}
		sb.WriteString(line + "\n")
	}

	if rec.FCI != nil {
		sb.WriteString(fmt.Sprintf("    + ISO select: DF name %X", rec.FCI.DFName))
		if len(rec.FCI.Proprietary) > 0 {
			sb.WriteString(fmt.Sprintf(", proprietary %X", rec.FCI.Proprietary))
		}
		sb.WriteString("\n")
	}

	writeFailures(sb, rec.Failures)
}

func writeFailures(sb *strings.Builder, failures []Failure) {
	for _, f := range failures {
		sb.WriteString(fmt.Sprintf("    - [!!] %s\n", f))
	}
}

func writeSetting(sb *strings.Builder, name, value string) {
	sb.WriteString(fmt.Sprintf("      %-22s %s\n", name+":", value))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func needsMasterKey(b bool) string {
	if b {
		return "master key required"
	}
	return "free"
}
