package report

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/flanksource/clicky/task"
	"github.com/flanksource/commons/logger"
	"github.com/samber/lo"

	"github.com/glebziz/rtest/unit"
)

var (
	runLine    = regexp.MustCompile(`^\s*` + regexp.QuoteMeta(strings.TrimSpace(unit.RunPrefix)) + `\s+(\S+)\s*$`)
	resultLine = regexp.MustCompile(`^\s*--- (PASS|FAIL|SKIP):\s+(\S+) \((\d+)\.(\d+)s?\)\s*$`)
)

const maxLine = 1024 * 1024

// Parse reads a trace stream and returns one result per unit in the order the
// units first appeared. Lines that are not trace lines are attached to the
// most recently started unit that has not finished, or ignored.
func Parse(r io.Reader) (*Report, error) {
	rep := &Report{}
	open := map[string][]int{}
	var running []int

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		if m := runLine.FindStringSubmatch(line); m != nil {
			name := m[1]
			idx := len(rep.Results)
			open[name] = append(open[name], idx)
			running = append(running, idx)
			rep.Results = append(rep.Results, newResult(name))
			continue
		}

		if m := resultLine.FindStringSubmatch(line); m != nil {
			name := m[2]
			elapsed, err := parseElapsed(m[3], m[4])
			if err != nil {
				logger.Warnf("line %d: %v", lineNum, err)
				continue
			}
			var idx int
			if pending := open[name]; len(pending) > 0 {
				idx = pending[len(pending)-1]
				open[name] = pending[:len(pending)-1]
				if i := lo.LastIndexOf(running, idx); i >= 0 {
					running = append(running[:i], running[i+1:]...)
				}
			} else {
				idx = len(rep.Results)
				rep.Results = append(rep.Results, newResult(name))
			}

			res := &rep.Results[idx]
			res.Status = statuses[m[1]]
			res.Duration = elapsed
			continue
		}

		if len(running) == 0 || strings.TrimSpace(line) == "" {
			logger.V(4).Infof("line %d: ignored %q", lineNum, line)
			continue
		}
		res := &rep.Results[running[len(running)-1]]
		res.Output = append(res.Output, strings.TrimSpace(line))
	}
	if err := scanner.Err(); err != nil {
		return rep, fmt.Errorf("failed to read trace: %w", err)
	}
	logger.Debugf("parsed %d units from %d lines", len(rep.Results), lineNum)
	return rep, nil
}

var statuses = map[string]task.Status{
	"PASS": task.StatusPASS,
	"FAIL": task.StatusFAIL,
	"SKIP": task.StatusSKIP,
}

func newResult(name string) Result {
	group, kase := splitName(name)
	return Result{Name: name, Group: group, Case: kase, Status: Incomplete}
}

// splitName splits a qualified name at its last separator.
func splitName(name string) (group, kase string) {
	i := strings.LastIndex(name, "/")
	if i < 0 {
		return "", name
	}
	return name[:i], name[i+1:]
}

// parseElapsed reads "<seconds>.<fraction>" where the fraction is read as
// milliseconds, so both "0.005" and the two digit "0.50" of go test parse.
func parseElapsed(secs, frac string) (time.Duration, error) {
	s, err := strconv.ParseInt(secs, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid elapsed seconds %q: %w", secs, err)
	}
	if len(frac) > 3 {
		frac = frac[:3]
	}
	frac += strings.Repeat("0", 3-len(frac))
	ms, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid elapsed millis %q: %w", frac, err)
	}
	return time.Duration(s)*time.Second + time.Duration(ms)*time.Millisecond, nil
}
