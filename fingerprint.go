package dictscan

import (
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"
)

// AddFingerprintToFinding computes and sets the fingerprint on a finding.
//
// A fingerprint is a deterministic identifier for a finding: where it was
// found, which pattern matched and a hash of the matched text. Two scans of
// the same content produce the same fingerprint, which makes fingerprints
// suitable for deduplication and ignore files.
//
// # Format
//
//	{source}!{resource_kind}!{identity_kvs}!{pattern_id}!{match_hash}#L{startLine}-{endLine}#C{startCol}-{endCol}
//
// identity_kvs are the sorted key=value pairs named by
// [ResourceKind.FingerprintKeys]. match_hash is the first 8 hex chars of the
// XXH3 hash of the matched text.
//
// # Example
//
//	file!file_content!path=notes.txt!password!1a2b3c4d#L3-3#C7-14
func AddFingerprintToFinding(finding *Finding) {
	r := finding.Fragment.Resource

	var b strings.Builder
	fmt.Fprintf(&b, "%s!%s!%s!%s!%s#L%d-%d#C%d-%d",
		r.Source,
		r.Kind,
		r.FingerprintIdentity(),
		finding.PatternID,
		matchHash(finding.Match),
		finding.StartLine, finding.EndLine,
		finding.StartColumn, finding.EndColumn,
	)
	finding.Fingerprint = b.String()
}

// matchHash returns the first 8 hex characters of the XXH3-64 hash of s.
func matchHash(s string) string {
	h := xxh3.HashString(s)
	return fmt.Sprintf("%016x", h)[:8]
}
