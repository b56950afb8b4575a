package trellis

// RegisterStatic mounts the static descriptor of v on parent.
func (r *Registrar) RegisterStatic(parent Router, v any) (*StaticReport, error) {
	desc, err := r.store.Describe(v)
	if err != nil {
		return nil, err
	}
	static, ok := desc.(*StaticDescriptor)
	if !ok {
		return nil, newError(KindMismatchCode, EntityOf(v), "", "not a static route")
	}

	parent.Static(static.Path, static.Dir)

	report := &StaticReport{Path: static.Path, Dir: static.Dir, Entity: static.Entity}
	r.reporter.Static(report)
	return report, nil
}
