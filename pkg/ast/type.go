package ast

// Type is the tagged-variant type representation. Every
// concrete type embeds typeBase, which promotes the typeNode marker method
// so new variants need only declare their own fields.
type Type interface {
	typeNode()
}

type typeBase struct{}

func (typeBase) typeNode() {}

// PrimitiveKind enumerates LuaNext's built-in scalar and bottom/top types.
type PrimitiveKind int

const (
	PrimitiveNil PrimitiveKind = iota
	PrimitiveBoolean
	PrimitiveInteger
	PrimitiveNumber
	PrimitiveString
	PrimitiveAny
	PrimitiveUnknown
	PrimitiveNever
)

type PrimitiveType struct {
	typeBase
	Kind PrimitiveKind
}

type ArrayType struct {
	typeBase
	Element TypeId
}

type TupleType struct {
	typeBase
	Elements []TypeId
}

// FunctionParam is a single parameter in a FunctionType.
type FunctionParam struct {
	Name     StringId
	Type     TypeId
	Optional bool
	Rest     bool
}

type FunctionType struct {
	typeBase
	Params  []FunctionParam
	Returns TypeId
}

// ObjectField is a named field in an ObjectType.
type ObjectField struct {
	Name     StringId
	Type     TypeId
	Optional bool
}

// IndexSignature represents `[key: K]: V` in an object type.
type IndexSignature struct {
	KeyType   TypeId
	ValueType TypeId
}

// MethodSignature represents a method member of an object/interface type.
type MethodSignature struct {
	Name StringId
	Fn   TypeId // always a FunctionType id
}

type ObjectType struct {
	typeBase
	Fields          []ObjectField
	IndexSignatures []IndexSignature
	Methods         []MethodSignature
}

type UnionType struct {
	typeBase
	Members []TypeId
}

type IntersectionType struct {
	typeBase
	Members []TypeId
}

// LiteralTypeKind enumerates the scalar kinds a LiteralType can pin down.
type LiteralTypeKind int

const (
	LiteralTypeString LiteralTypeKind = iota
	LiteralTypeNumber
	LiteralTypeBoolean
)

type LiteralType struct {
	typeBase
	Kind   LiteralTypeKind
	String StringId
	Number float64
	Bool   bool
}

type ClassRefType struct {
	typeBase
	Class StringId
}

type InterfaceRefType struct {
	typeBase
	Interface StringId
}

type TypeAliasRefType struct {
	typeBase
	Alias     StringId
	TypeArgs  []TypeId
}

type GenericParamType struct {
	typeBase
	Name       StringId
	Constraint TypeId // InvalidTypeId if unconstrained
}

// UtilityKind enumerates the built-in TypeScript-style mapped/utility types.
type UtilityKind int

const (
	UtilityPartial UtilityKind = iota
	UtilityRequired
	UtilityRecord
	UtilityPick
	UtilityOmit
	UtilityNilable
	UtilityNonNilable
	UtilityReturnType
	UtilityParameters
)

type UtilityType struct {
	typeBase
	Kind UtilityKind
	Args []TypeId // Record<K,V> has two args; most have one
}

// Primitives returns the singleton Type for a primitive kind. Callers should
// still go through an Arena (NewType) since TypeId identity matters for
// the type checker's memoization, but this helper avoids repeating the
// PrimitiveType{...} literal everywhere.
func Primitives(kind PrimitiveKind) Type {
	return PrimitiveType{Kind: kind}
}
