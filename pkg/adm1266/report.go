package adm1266

import (
	"bufio"
	"io"
	"strings"
)

// LineReport is the diagnostic description of one line. Err is set when the
// line's configuration could not be read.
type LineReport struct {
	Line  Line
	Modes []Mode
	Err   error
}

// Available reports whether the configuration was read.
func (r LineReport) Available() bool {
	return r.Err == nil
}

// String renders the report as "<name> ( <modes> )".
func (r LineReport) String() string {
	var b strings.Builder
	b.WriteString(r.Line.Name)
	b.WriteString(" (")
	if r.Err != nil {
		b.WriteString(" unavailable")
	}
	for _, m := range r.Modes {
		b.WriteByte(' ')
		b.WriteString(string(m))
	}
	b.WriteString(" )")
	return b.String()
}

// Report reads the configuration of every line. Failures are logged and
// recorded on the affected entries; the remaining lines are still reported.
func (c *Chip) Report() []LineReport {
	reports := make([]LineReport, 0, NumLines)

	for _, line := range familyLines(FamilyGPIO) {
		r := LineReport{Line: line}
		cfg, err := c.ReadGPIOConfig(line.Offset)
		if err != nil {
			c.log.Error("GPIO scan failed", "line", line.Name, "family", FamilyGPIO.String(), "err", err)
			r.Err = err
		} else {
			r.Modes = cfg.Modes()
		}
		reports = append(reports, r)
	}

	cfgs, err := c.ReadPDIOConfigs()
	if err != nil {
		c.log.Error("PDIO scan failed", "family", FamilyPDIO.String(), "err", err)
	}
	for i, line := range familyLines(FamilyPDIO) {
		r := LineReport{Line: line}
		if err != nil {
			r.Err = err
		} else {
			r.Modes = cfgs[i].Modes()
		}
		reports = append(reports, r)
	}

	return reports
}

// WriteDump writes one report line per pin to w.
func (c *Chip) WriteDump(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, r := range c.Report() {
		bw.WriteString(r.String())
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
