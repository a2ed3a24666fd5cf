package application

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-prograde/infrastructure/export"
	"github.com/ahrav/go-prograde/internal/domain"
)

// Defaults applied by ConfigLoader for keys left unset.
const (
	DefaultConfigPath   = "projects.yaml"
	DefaultMarksCol     = "Project %"
	DefaultProjectsPath = "."
	DefaultMarksFroot   = "project_marks"
	DefaultExportFname  = "export.csv"
	DefaultRounding     = "half_even"
)

// Config is the course configuration document and the primary entry point
// for every action. Projects keep the order in which they are written.
type Config struct {
	// Projects lists the graded groups in document order.
	Projects Projects `yaml:"projects" validate:"required,min=1,dive"`
	// RosterPath locates the class list CSV.
	RosterPath string `yaml:"roster_path" validate:"required"`
	// StudentIDCol names the roster column holding the identifier that
	// project member logins refer to.
	StudentIDCol string `yaml:"student_id_col" validate:"required,column"`
	// Missing lists students dropped from the roster before any action,
	// typically those who withdrew.
	Missing []string `yaml:"missing" validate:"dive,login"`
	// MarksCol names the final score column.
	MarksCol string `yaml:"marks_col" validate:"omitempty,column"`
	// ProjectsPath is the directory holding one subdirectory per project.
	ProjectsPath string `yaml:"projects_path"`
	// MarksFroot is the output file name for write-marks, without the
	// .csv extension.
	MarksFroot string `yaml:"marks_froot"`
	// RoundFinal rounds the final score to a whole number after averaging.
	RoundFinal bool `yaml:"round_final"`
	// Rounding selects the tie-break used by RoundFinal.
	Rounding string `yaml:"rounding" validate:"omitempty,oneof=half_even half_away"`
	// CanvasExportPath locates the gradebook export used by export-marks.
	CanvasExportPath string `yaml:"canvas_export_path"`
	// Export configures the merge export.
	Export ExportConfig `yaml:"export"`
	// OutputColumns restricts the columns written by write-marks. Empty
	// means every column.
	OutputColumns []string `yaml:"output_columns" validate:"dive,column"`
	// ProjectsURL is the hosting organisation URL for repository actions.
	ProjectsURL string `yaml:"projects_url" validate:"omitempty,url"`
	// FeedbackIDCol names the roster column used to name feedback
	// directories. Defaults to StudentIDCol.
	FeedbackIDCol string `yaml:"feedback_id_col" validate:"omitempty,column"`
	// MetricsTextfile, when set, receives run metrics in Prometheus text
	// format after grading.
	MetricsTextfile string `yaml:"metrics_textfile"`
	// Git paces repository commands.
	Git GitConfig `yaml:"git"`

	// dir is the directory of the configuration file; relative input
	// paths resolve against it.
	dir string
}

// ExportConfig configures the merge of final marks into a gradebook.
type ExportConfig struct {
	// MergeCol is the join key present in both tables.
	MergeCol string `yaml:"merge_col" validate:"omitempty,column"`
	// ColMap renames marks columns to gradebook columns, in document order.
	ColMap ColumnMap `yaml:"col_map"`
	// Fname is the merged output file.
	Fname string `yaml:"fname"`
}

// GitConfig paces repository commands so bulk operations against a
// hosting service stay within its limits.
type GitConfig struct {
	// OpsPerSecond caps commands per second. Zero disables pacing.
	OpsPerSecond float64 `yaml:"ops_per_second" validate:"gte=0"`
	// Burst is the number of commands allowed back to back.
	Burst int `yaml:"burst" validate:"gte=0"`
}

// ProjectConfig is one entry of the projects mapping.
type ProjectConfig struct {
	// Name is the mapping key and the project's directory name.
	Name string `yaml:"-" validate:"required,projectname"`
	// Members lists the students in the project with their individual
	// contribution scores.
	Members Members `yaml:"members" validate:"required,min=1,dive"`
	// Presentation is the project-wide presentation score.
	Presentation *float64 `yaml:"presentation" validate:"required,gte=0"`
}

// Projects is the ordered projects mapping.
type Projects []ProjectConfig

// UnmarshalYAML decodes a mapping of project name to project body while
// keeping document order.
func (p *Projects) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: projects must be a mapping of name to project", value.Line)
	}
	out := make(Projects, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, body := value.Content[i], value.Content[i+1]
		var pc ProjectConfig
		if err := decodeStrict(body, &pc); err != nil {
			return fmt.Errorf("project %q: %w", key.Value, err)
		}
		pc.Name = key.Value
		out = append(out, pc)
	}
	*p = out
	return nil
}

// Names returns project names in document order.
func (p Projects) Names() []string {
	names := make([]string, len(p))
	for i, pc := range p {
		names[i] = pc.Name
	}
	return names
}

// Member is one login with its optional contribution score.
type Member struct {
	Login        string   `validate:"required,login"`
	Contribution *float64 `validate:"omitempty,gte=0"`
}

// Members accepts either a mapping of login to contribution score or a
// plain sequence of logins. Logins written as e-mail addresses keep only
// the part before the @.
type Members []Member

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *Members) UnmarshalYAML(value *yaml.Node) error {
	var out Members
	switch value.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(value.Content); i += 2 {
			key, score := value.Content[i], value.Content[i+1]
			member := Member{Login: loginOf(key.Value)}
			if score.Tag != "!!null" {
				var f float64
				if err := score.Decode(&f); err != nil {
					return fmt.Errorf("line %d: contribution for %q: %w", score.Line, key.Value, err)
				}
				member.Contribution = &f
			}
			out = append(out, member)
		}
	case yaml.SequenceNode:
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: member must be a login", item.Line)
			}
			out = append(out, Member{Login: loginOf(item.Value)})
		}
	default:
		return fmt.Errorf("line %d: members must be a mapping or a list", value.Line)
	}
	*m = out
	return nil
}

func loginOf(s string) string {
	login, _, _ := strings.Cut(strings.TrimSpace(s), "@")
	return login
}

// ColumnMap is an ordered set of column renames.
type ColumnMap []export.Rename

// UnmarshalYAML decodes a mapping of source column to output column while
// keeping document order.
func (c *ColumnMap) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: col_map must be a mapping", value.Line)
	}
	out := make(ColumnMap, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, to := value.Content[i], value.Content[i+1]
		if to.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: col_map value for %q must be a column name", to.Line, key.Value)
		}
		out = append(out, export.Rename{From: key.Value, To: to.Value})
	}
	*c = out
	return nil
}

// decodeStrict decodes node into v rejecting unknown keys. yaml.Node.Decode
// does not carry the outer decoder's KnownFields setting, so the node is
// re-encoded and decoded with a strict decoder.
func decodeStrict(node *yaml.Node, v any) error {
	data, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(v)
}

// ToProjects converts the configured projects to domain projects.
func (c *Config) ToProjects() []domain.Project {
	out := make([]domain.Project, len(c.Projects))
	for i, pc := range c.Projects {
		p := domain.Project{Name: pc.Name, Members: make([]domain.Member, len(pc.Members))}
		if pc.Presentation != nil {
			p.Presentation = *pc.Presentation
		}
		for j, m := range pc.Members {
			p.Members[j] = domain.Member{Login: m.Login, Contribution: m.Contribution}
		}
		out[i] = p
	}
	return out
}

// Dir returns the directory relative input paths resolve against.
func (c *Config) Dir() string { return c.dir }

// MarksFile returns the write-marks output file name.
func (c *Config) MarksFile() string { return c.MarksFroot + ".csv" }
