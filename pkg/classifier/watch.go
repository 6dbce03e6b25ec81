package classifier

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"igaudit/pkg/config"
	"igaudit/pkg/models"
)

// watchRule is a compiled advisory expression
type watchRule struct {
	name    string
	program cel.Program
}

func watchEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("followers", cel.IntType),
		cel.Variable("following", cel.IntType),
		cel.Variable("posts", cel.IntType),
		cel.Variable("bio", cel.StringType),
		cel.Variable("engagement", cel.DoubleType),
		cel.Variable("follow_ratio", cel.DoubleType),
		cel.Variable("engagement_unavailable", cel.BoolType),
	)
}

func compileWatchRules(rules []config.WatchRuleConfig) ([]*watchRule, error) {
	if len(rules) == 0 {
		return nil, nil
	}

	env, err := watchEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create expression environment: %w", err)
	}

	compiled := make([]*watchRule, 0, len(rules))
	for _, r := range rules {
		ast, iss := env.Compile(r.Expression)
		if iss != nil && iss.Err() != nil {
			return nil, fmt.Errorf("watch rule %q: %w", r.Name, iss.Err())
		}
		if !ast.OutputType().IsExactType(cel.BoolType) {
			return nil, fmt.Errorf("watch rule %q must evaluate to bool, got %s", r.Name, ast.OutputType())
		}

		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("watch rule %q: %w", r.Name, err)
		}
		compiled = append(compiled, &watchRule{name: r.Name, program: prg})
	}

	return compiled, nil
}

// evalWatchRules returns the names of the watch rules that hold for record.
// Rules that fail at evaluation time (division by zero and the like) are skipped.
func (c *Classifier) evalWatchRules(record models.ProfileRecord, ratio float64) []string {
	if len(c.watch) == 0 {
		return nil
	}

	vars := map[string]any{
		"followers":              int64(record.FollowerCount),
		"following":              int64(record.FollowingCount),
		"posts":                  int64(record.PostCount),
		"bio":                    record.Bio,
		"engagement":             record.EngagementRate,
		"follow_ratio":           ratio,
		"engagement_unavailable": record.EngagementUnavailable,
	}

	var fired []string
	for _, w := range c.watch {
		out, _, err := w.program.Eval(vars)
		if err != nil {
			continue
		}
		if hit, ok := out.Value().(bool); ok && hit {
			fired = append(fired, "watch: "+w.name)
		}
	}
	return fired
}
