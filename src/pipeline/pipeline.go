// Package pipeline sequences a release run: resolve the manifest version,
// resolve registry credentials, authenticate, build the multi-platform
// image, publish every tag. Steps run strictly in order and the first
// failure aborts the run — already-pushed tags stay pushed and are reported,
// never rolled back or retried.
//
// Values move between steps through the Plan struct, by value. There is no
// scratch file and no shared mutable state.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gitlab.prplanit.com/precisionplanit/castoff/src/build"
	"gitlab.prplanit.com/precisionplanit/castoff/src/config"
	"gitlab.prplanit.com/precisionplanit/castoff/src/guard"
	"gitlab.prplanit.com/precisionplanit/castoff/src/manifest"
	"gitlab.prplanit.com/precisionplanit/castoff/src/registry"
	"gitlab.prplanit.com/precisionplanit/castoff/src/secrets"
)

// Stage names, in execution order.
const (
	StageGuard   = "guard"
	StageVersion = "version"
	StageSecrets = "secrets"
	StageAuth    = "auth"
	StageBuild   = "build"
	StagePublish = "publish"
)

// StageResult records one completed (or failed) stage.
type StageResult struct {
	Stage    string
	Status   string // "success", "failed", "skipped"
	Detail   string
	Duration time.Duration
	Err      error
}

// Plan is the resolved execution plan, computed before any side effect.
type Plan struct {
	Version    *manifest.Version
	Git        *manifest.GitMeta
	Step       build.BuildStep
	Refs       []string // every fully qualified tag, across all registries
	Registries []string // unique registry hosts to authenticate against
}

// Result is the outcome of a full run.
type Result struct {
	Plan     *Plan
	Stages   []StageResult
	Tags     []registry.TagResult
	Duration time.Duration
}

// Pipeline wires the steps together. The function fields default to the
// real implementations; tests swap in fakes.
type Pipeline struct {
	Config    *config.Config
	RootDir   string
	Verbose   bool
	SkipGuard bool

	// OnStage, when set, observes each stage as it completes.
	OnStage func(StageResult)

	scan       func(ctx context.Context, root string) ([]guard.Finding, error)
	resolve    func(path string) (*manifest.Version, error)
	detectGit  func(root string) *manifest.GitMeta
	credential func(ctx context.Context) (*secrets.Credential, error)
	login      func(ctx context.Context, url string, cred *secrets.Credential) error
	builder    func(ctx context.Context) error
	buildStep  func(ctx context.Context, step build.BuildStep) (*build.StepResult, error)
	push       func(ctx context.Context, refs []string) ([]registry.TagResult, error)
	verify     func(ctx context.Context, refs []string) ([]registry.TagResult, error)
}

// New creates a pipeline bound to the real collaborators.
func New(cfg *config.Config, rootDir string, verbose bool) *Pipeline {
	p := &Pipeline{
		Config:  cfg,
		RootDir: rootDir,
		Verbose: verbose,
	}

	p.scan = func(ctx context.Context, root string) ([]guard.Finding, error) {
		sc, err := guard.New(cfg.Guard.Ignore)
		if err != nil {
			return nil, err
		}
		return sc.Scan(ctx, root)
	}
	p.resolve = manifest.Resolve
	p.detectGit = manifest.DetectGit
	p.credential = func(ctx context.Context) (*secrets.Credential, error) {
		provider, err := secrets.NewProvider(cfg.Secrets)
		if err != nil {
			return nil, err
		}
		return secrets.ResolveCredential(ctx, provider, cfg.Secrets)
	}
	p.login = registry.Login

	bx := build.NewBuildx(verbose)
	p.builder = bx.EnsureBuilder
	p.buildStep = bx.Build

	pub := registry.NewPublisher(verbose)
	p.push = pub.PushTags
	p.verify = pub.VerifyTags

	return p
}

// BuildPlan resolves the version and computes refs and strategy without any
// side effects. Used directly for --dry-run and internally by Run.
func (p *Pipeline) BuildPlan() (*Plan, error) {
	v, err := p.resolve(p.Config.Manifest.Path)
	if err != nil {
		return nil, err
	}

	img := p.Config.Image

	plan := &Plan{
		Version: v,
		Git:     p.detectGit(p.RootDir),
	}

	seen := map[string]bool{}
	for _, reg := range img.Registries {
		tags := reg.Tags
		if len(tags) == 0 {
			tags = []string{"{version}", "latest"}
		}
		for _, tag := range build.ResolveTags(tags, v) {
			plan.Refs = append(plan.Refs, build.Ref(reg.URL, reg.Path, tag))
		}
		if !seen[reg.URL] {
			seen[reg.URL] = true
			plan.Registries = append(plan.Registries, reg.URL)
		}
	}
	if len(plan.Refs) == 0 {
		return nil, fmt.Errorf("pipeline: no registries configured, nothing to tag")
	}

	step := build.BuildStep{
		Name:       "image",
		Dockerfile: img.Dockerfile,
		Context:    img.Context,
		Target:     img.Target,
		Platforms:  img.Platforms,
		BuildArgs:  stampBuildArgs(img.BuildArgs, v, plan.Git),
		Tags:       plan.Refs,
	}

	// Multi-platform images can't be loaded into the daemon; buildx pushes
	// them as part of the build and publish verifies per tag. A
	// single-platform build loads locally and pushes tag by tag.
	if build.IsMultiPlatform(step) {
		step.Push = true
	} else {
		step.Load = true
	}
	plan.Step = step

	return plan, nil
}

// Run executes the pipeline. The returned Result is valid even on error —
// it records which stages completed and which tags made it out.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{}

	fail := func(stage string, begun time.Time, err error) (*Result, error) {
		p.record(res, StageResult{
			Stage:    stage,
			Status:   "failed",
			Detail:   err.Error(),
			Duration: time.Since(begun),
			Err:      err,
		})
		res.Duration = time.Since(start)
		return res, err
	}

	// Guard: leaked credentials must not reach an image layer.
	guardStart := time.Now()
	if p.SkipGuard || !p.Config.Guard.Active() {
		p.record(res, StageResult{Stage: StageGuard, Status: "skipped", Detail: "disabled"})
	} else {
		findings, err := p.scan(ctx, p.contextDir())
		if err != nil {
			return fail(StageGuard, guardStart, err)
		}
		if len(findings) > 0 {
			return fail(StageGuard, guardStart, &guard.LeakError{Findings: findings})
		}
		p.record(res, StageResult{
			Stage:    StageGuard,
			Status:   "success",
			Detail:   "no leaks",
			Duration: time.Since(guardStart),
		})
	}

	// Version: the single extraction every later step shares.
	verStart := time.Now()
	plan, err := p.BuildPlan()
	if err != nil {
		return fail(StageVersion, verStart, err)
	}
	res.Plan = plan
	p.record(res, StageResult{
		Stage:    StageVersion,
		Status:   "success",
		Detail:   plan.Version.Raw,
		Duration: time.Since(verStart),
	})

	// Secrets: resolved into memory, handed to auth, then dropped.
	secStart := time.Now()
	cred, err := p.credential(ctx)
	if err != nil {
		return fail(StageSecrets, secStart, err)
	}
	p.record(res, StageResult{
		Stage:    StageSecrets,
		Status:   "success",
		Detail:   "registry credentials resolved",
		Duration: time.Since(secStart),
	})

	// Auth: one login per unique registry host.
	authStart := time.Now()
	for _, url := range plan.Registries {
		if err := p.login(ctx, url, cred); err != nil {
			*cred = secrets.Credential{}
			return fail(StageAuth, authStart, err)
		}
	}
	// Sessions now live in the daemon; the in-memory credential is done.
	*cred = secrets.Credential{}
	p.record(res, StageResult{
		Stage:    StageAuth,
		Status:   "success",
		Detail:   strings.Join(plan.Registries, ", "),
		Duration: time.Since(authStart),
	})

	// Build: one invocation, all platforms, all tags. All-or-nothing.
	buildStart := time.Now()
	if err := p.builder(ctx); err != nil {
		return fail(StageBuild, buildStart, err)
	}
	stepResult, err := p.buildStep(ctx, plan.Step)
	if err != nil {
		return fail(StageBuild, buildStart, err)
	}
	p.record(res, StageResult{
		Stage:    StageBuild,
		Status:   "success",
		Detail:   fmt.Sprintf("%d image ref(s), %s", len(stepResult.Images), strings.Join(plan.Step.Platforms, ",")),
		Duration: time.Since(buildStart),
	})

	// Publish: per-tag outcome, partial failure named ref by ref.
	pubStart := time.Now()
	var tagResults []registry.TagResult
	if plan.Step.Push {
		tagResults, err = p.verify(ctx, plan.Refs)
	} else {
		tagResults, err = p.push(ctx, plan.Refs)
	}
	res.Tags = tagResults
	if err != nil {
		return fail(StagePublish, pubStart, err)
	}
	p.record(res, StageResult{
		Stage:    StagePublish,
		Status:   "success",
		Detail:   fmt.Sprintf("%d tag(s)", len(tagResults)),
		Duration: time.Since(pubStart),
	})

	res.Duration = time.Since(start)
	return res, nil
}

func (p *Pipeline) contextDir() string {
	if p.Config.Image.Context != "" && p.Config.Image.Context != "." {
		return p.Config.Image.Context
	}
	return p.RootDir
}

func (p *Pipeline) record(res *Result, sr StageResult) {
	res.Stages = append(res.Stages, sr)
	if p.OnStage != nil {
		p.OnStage(sr)
	}
}

// stampBuildArgs injects VERSION, COMMIT, and BUILD_DATE build args unless
// the config overrides them.
func stampBuildArgs(existing map[string]string, v *manifest.Version, gm *manifest.GitMeta) map[string]string {
	args := make(map[string]string, len(existing)+3)
	for k, val := range existing {
		args[k] = val
	}

	if _, ok := args["VERSION"]; !ok {
		args["VERSION"] = v.Raw
	}
	if gm != nil {
		if _, ok := args["COMMIT"]; !ok {
			args["COMMIT"] = gm.SHA
		}
	}
	if _, ok := args["BUILD_DATE"]; !ok {
		args["BUILD_DATE"] = time.Now().UTC().Format(time.RFC3339)
	}
	return args
}
