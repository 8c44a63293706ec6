package compensation

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// =============================================================================
// SNAPSHOT - Whole-state backup document
// =============================================================================

// Snapshot is the three-collection backup document.
//
//	{"institutionInfo": {...}, "beneficiaries": [...], "compensations": [...]}
type Snapshot struct {
	InstitutionInfo InstitutionInfo `json:"institutionInfo"`
	Beneficiaries   []Beneficiary   `json:"beneficiaries"`
	Compensations   []Record        `json:"compensations"`
}

// ParseSnapshot decodes a backup document. Every top-level key is required;
// a missing or undecodable key yields ErrInvalidBackupFormat.
func ParseSnapshot(data []byte) (Snapshot, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Snapshot{}, &BackupError{Err: err}
	}

	var snap Snapshot
	fields := []struct {
		key  Collection
		dest any
	}{
		{CollectionInstitution, &snap.InstitutionInfo},
		{CollectionBeneficiaries, &snap.Beneficiaries},
		{CollectionCompensations, &snap.Compensations},
	}
	for _, f := range fields {
		msg, ok := raw[string(f.key)]
		if !ok || isNull(msg) {
			return Snapshot{}, &BackupError{MissingKey: string(f.key)}
		}
		if err := json.Unmarshal(msg, f.dest); err != nil {
			return Snapshot{}, &BackupError{Err: fmt.Errorf("%s: %w", f.key, err)}
		}
	}
	return snap, nil
}

// normalize sorts beneficiaries by id, compacts ids to 1..N, remaps records
// accordingly, drops orphaned records, keeps the last record per
// beneficiary and recomputes every derived amount.
func (s Snapshot) normalize() (Snapshot, error) {
	beneficiaries := make([]Beneficiary, len(s.Beneficiaries))
	copy(beneficiaries, s.Beneficiaries)
	sort.SliceStable(beneficiaries, func(i, j int) bool {
		return beneficiaries[i].ID < beneficiaries[j].ID
	})

	mapping := make(map[BeneficiaryID]BeneficiaryID, len(beneficiaries))
	owners := make(map[string]BeneficiaryID, len(beneficiaries))
	for i := range beneficiaries {
		old := beneficiaries[i].ID
		if _, dup := mapping[old]; dup {
			return Snapshot{}, &BackupError{Err: fmt.Errorf("duplicate beneficiary id %d", old)}
		}
		// Blank accounts are unpayable but not ambiguous; the encoder skips them.
		if account := strings.TrimSpace(beneficiaries[i].Account); account != "" {
			if owner, dup := owners[account]; dup {
				return Snapshot{}, &BackupError{Err: fmt.Errorf("account %s held by beneficiaries %d and %d",
					account, owner, old)}
			}
			owners[account] = old
		}
		mapping[old] = BeneficiaryID(i + 1)
		beneficiaries[i].ID = BeneficiaryID(i + 1)
	}

	ledger := NewLedger()
	for _, rec := range s.Compensations {
		newID, ok := mapping[rec.BeneficiaryID]
		if !ok {
			continue
		}
		rec.BeneficiaryID = newID
		ledger.Upsert(rec)
	}

	return Snapshot{
		InstitutionInfo: s.InstitutionInfo,
		Beneficiaries:   beneficiaries,
		Compensations:   ledger.List(),
	}, nil
}

func isNull(msg json.RawMessage) bool {
	return len(msg) == 0 || string(msg) == "null"
}

// BackupFileName returns the download name of a backup taken at now.
func BackupFileName(now time.Time) string {
	return "CompensationBackup_" + now.UTC().Format("20060102150405") + ".json"
}
