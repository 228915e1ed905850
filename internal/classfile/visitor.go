package classfile

// Visitor receives class-file structure in file order and decides, per
// event, whether the codec should re-emit the original encoding or
// substitute a replacement. This realizes spec.md §9's "no inheritance in
// the core" note as a plain Go interface (capability set
// visit-field/visit-method/visit-attribute), not a class hierarchy.
//
// Each method returns (replacement, ok): ok == false means "keep the
// original", matching Walk's contract that any region not explicitly
// rewritten is emitted byte-for-byte.
type Visitor interface {
	// VisitHeader is called once with the class's header fields. A nil,
	// false return leaves the header untouched.
	VisitHeader(cf *ClassFile) (access, thisClass, superClass *uint16, ok bool)

	// VisitField is called once per field, in declaration order.
	VisitField(f *Field) (replacement *Field, ok bool)

	// VisitMethod is called once per method, in declaration order.
	VisitMethod(m *Method) (replacement *Method, ok bool)

	// VisitAttribute is called once per class-level attribute, in
	// declaration order, with the attribute's resolved name.
	VisitAttribute(name string, a *Attribute) (replacement *Attribute, ok bool)
}

// Walk drives v over cf in class-file order (header, then each field,
// then each method, then each class attribute), applying any
// replacements and leaving everything else as-is. It mutates cf in
// place and returns it for chaining.
func Walk(cf *ClassFile, v Visitor) *ClassFile {
	if access, thisClass, superClass, ok := v.VisitHeader(cf); ok {
		if access != nil {
			cf.AccessFlags = *access
		}
		if thisClass != nil {
			cf.ThisClass = *thisClass
		}
		if superClass != nil {
			cf.SuperClass = *superClass
		}
	}

	for i, f := range cf.Fields {
		if repl, ok := v.VisitField(f); ok {
			cf.Fields[i] = repl
		}
	}

	for i, m := range cf.Methods {
		if repl, ok := v.VisitMethod(m); ok {
			cf.Methods[i] = repl
		}
	}

	for i, a := range cf.Attributes {
		name := cf.Pool.Utf8At(a.NameIndex)
		if repl, ok := v.VisitAttribute(name, a); ok {
			cf.Attributes[i] = repl
		}
	}

	return cf
}

// NoopVisitor embeds into a concrete visitor so it only needs to
// override the events it cares about; everything else is "keep as-is".
type NoopVisitor struct{}

func (NoopVisitor) VisitHeader(*ClassFile) (*uint16, *uint16, *uint16, bool) { return nil, nil, nil, false }
func (NoopVisitor) VisitField(*Field) (*Field, bool) { return nil, false }
func (NoopVisitor) VisitMethod(*Method) (*Method, bool) { return nil, false }
func (NoopVisitor) VisitAttribute(string, *Attribute) (*Attribute, bool) { return nil, false }
