package transform

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cworthy-ocean/cstarorc/internal/model"
)

// TimeSlices partitions [start, end) into calendar-month slices. The first
// slice begins at start, the last ends at end, interior boundaries fall on
// the first of the month at 00:00:00. Grounded on transforms.py's
// get_time_slices.
func TimeSlices(start, end time.Time) ([][2]time.Time, error) {
	if !end.After(start) {
		return nil, fmt.Errorf("timesplit: end_date must be after start_date")
	}

	current := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, start.Location())

	var slices [][2]time.Time
	for current.Before(end) {
		monthStart := current
		var monthEnd time.Time
		if monthStart.Month() == time.December {
			monthEnd = time.Date(monthStart.Year()+1, time.January, 1, 0, 0, 0, 0, monthStart.Location())
		} else {
			monthEnd = time.Date(monthStart.Year(), monthStart.Month()+1, 1, 0, 0, 0, 0, monthStart.Location())
		}
		slices = append(slices, [2]time.Time{monthStart, monthEnd})
		current = monthEnd
	}

	if start.After(slices[0][0]) {
		slices[0][0] = start
	}
	if end.Before(slices[len(slices)-1][1]) {
		slices[len(slices)-1][1] = end
	}
	return slices, nil
}

var slugPattern = regexp.MustCompile(`[^a-zA-Z0-9]+`)

func slugify(s string) string {
	return strings.Trim(slugPattern.ReplaceAllString(s, "_"), "_")
}

// TimeSplit splits a time-ranged step into monthly sub-steps with chained
// restart files, grounded on RomsMarblTimeSplitter.__call__. It reads
// start_date/end_date/output_dir from the step's blueprint document.
func TimeSplit(step model.Step) ([]model.Step, error) {
	bp, raw, err := loadBlueprint(step.Blueprint)
	if err != nil {
		return nil, err
	}

	slices, err := TimeSlices(bp.RuntimeParams.StartDate.Time, bp.RuntimeParams.EndDate.Time)
	if err != nil {
		return nil, err
	}

	outputRoot := path.Join(bp.RuntimeParams.OutputDir, "tasks")
	dependsOn := step.DependsOn.Sorted()
	var lastRestartPath string

	children := make([]model.Step, 0, len(slices))
	for _, sl := range slices {
		sd, ed := sl[0], sl[1]
		compactSD := sd.Format("20060102150405")
		compactED := ed.Format("20060102150405")
		childName := slugify(fmt.Sprintf("%s_%s-%s", step.Name, compactSD, compactED))
		childOutputDir := path.Join(outputRoot, childName)

		overrides := model.ScalarMap{
			"runtime_params.start_date": sd.Format("2006-01-02 15:04:05"),
			"runtime_params.end_date":   ed.Format("2006-01-02 15:04:05"),
			"runtime_params.output_dir": childOutputDir,
		}
		if lastRestartPath != "" {
			overrides["runtime_params.initial_conditions.location"] = lastRestartPath
		}

		child := step.Clone()
		child.Name = childName
		child.Parent = step.Name
		child.DependsOn = model.NewStringSet(dependsOn...)
		child.BlueprintOverrides = child.BlueprintOverrides.Merge(overrides)

		childBlueprintPath, err := writeDerivedBlueprint(raw, step.Blueprint, childName, overrides)
		if err != nil {
			return nil, err
		}
		child.Blueprint = childBlueprintPath

		children = append(children, child)

		dependsOn = []string{childName}
		lastRestartPath = path.Join(childOutputDir, restartFileStem(bp)+"_rst."+compactSD+".nc")
	}

	return children, nil
}

func restartFileStem(bp *model.Blueprint) string {
	base := path.Base(bp.RuntimeParams.InitialConditions.Location)
	ext := path.Ext(base)
	return strings.TrimSuffix(base, ext)
}

func init() {
	Register("roms_marbl", TimeSplit)
}

func loadBlueprint(path string) (*model.Blueprint, *yaml.Node, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("timesplit: read blueprint %q: %w", path, err)
	}

	var bp model.Blueprint
	if err := yaml.Unmarshal(data, &bp); err != nil {
		return nil, nil, fmt.Errorf("timesplit: parse blueprint %q: %w", path, err)
	}

	var raw yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("timesplit: parse blueprint %q: %w", path, err)
	}

	return &bp, &raw, nil
}
