package scan

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fatih/semgroup"

	"github.com/dictscan/dictscan"
	"github.com/dictscan/dictscan/config"
	"github.com/dictscan/dictscan/regexp"
)

var (
	newLineRegexp  = regexp.MustCompile("\n")
	allowSignature = "dictscan:allow"
)

// Pipeline pulls fragments from a source, scans them and yields findings.
type Pipeline struct {
	Config config.Config

	// resource enumerator, fragment producer
	Source dictscan.Source

	// fragment consumer, match producer
	Scanner *Scanner

	// FragmentConcurrency bounds the fragments scanned at once.
	FragmentConcurrency int

	// Redact masks this percentage of every match. 0 disables redaction.
	Redact uint

	totalBytes atomic.Uint64
}

func NewPipeline(cfg config.Config, src dictscan.Source, scanner *Scanner) *Pipeline {
	return &Pipeline{
		Config:              cfg,
		Source:              src,
		Scanner:             scanner,
		FragmentConcurrency: 16,
	}
}

// ProcessFragment filters, scans, and produces findings for a single fragment.
func (p *Pipeline) ProcessFragment(ctx context.Context, fragment dictscan.Fragment) ([]dictscan.Finding, error) {
	p.totalBytes.Add(uint64(len(fragment.Raw)))

	if !p.Config.FragmentAllowed(fragment) {
		return nil, nil
	}

	matches, err := p.Scanner.ScanFragment(ctx, fragment)
	if err != nil {
		return nil, err
	}

	var findings []dictscan.Finding
	var newLineIndices [][]int
	for _, match := range matches {
		if newLineIndices == nil {
			newLineIndices = newLineRegexp.FindAllStringIndex(fragment.Raw, -1)
		}
		finding := CreateFinding(fragment, match, p.Scanner.Pattern(match.PatternIndex))
		AddLocationToFinding(finding, fragment, match, newLineIndices)

		if strings.Contains(finding.Line, allowSignature) {
			continue
		}
		if !p.Config.FindingAllowed(*finding) {
			continue
		}

		dictscan.AddFingerprintToFinding(finding)
		if p.Scanner.ignore != nil && p.Scanner.ignore.IsIgnored(finding) {
			continue
		}
		if p.Redact > 0 {
			finding.Redact(p.Redact)
		}
		findings = append(findings, *finding)
	}

	return findings, nil
}

// Run processes all fragments from the source concurrently. yield is called
// once per finding, never concurrently. A non-nil error from the source or
// from yield stops the run.
func (p *Pipeline) Run(ctx context.Context, yield func(dictscan.Finding, error) error) error {
	var mu sync.Mutex

	sg := semgroup.NewGroup(ctx, int64(max(p.FragmentConcurrency, 1)))
	err := p.Source.Fragments(ctx, func(fragment dictscan.Fragment, err error) error {
		if err != nil {
			mu.Lock()
			defer mu.Unlock()
			return yield(dictscan.Finding{}, err)
		}

		sg.Go(func() error {
			findings, err := p.ProcessFragment(ctx, fragment)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for _, f := range findings {
				if err := yield(f, nil); err != nil {
					return err
				}
			}
			return nil
		})
		return nil
	})

	if werr := sg.Wait(); err == nil {
		err = werr
	}
	return err
}

// TotalBytes returns the number of bytes processed so far.
func (p *Pipeline) TotalBytes() uint64 {
	return p.totalBytes.Load()
}
