package meshpb

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"
)

type (
	fieldType = descriptorpb.FieldDescriptorProto_Type
	fieldOpt  func(*descriptorpb.FieldDescriptorProto)
)

const (
	tBool     = descriptorpb.FieldDescriptorProto_TYPE_BOOL
	tBytes    = descriptorpb.FieldDescriptorProto_TYPE_BYTES
	tEnum     = descriptorpb.FieldDescriptorProto_TYPE_ENUM
	tFixed32  = descriptorpb.FieldDescriptorProto_TYPE_FIXED32
	tFloat    = descriptorpb.FieldDescriptorProto_TYPE_FLOAT
	tInt32    = descriptorpb.FieldDescriptorProto_TYPE_INT32
	tMessage  = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE
	tSfixed32 = descriptorpb.FieldDescriptorProto_TYPE_SFIXED32
	tSint32   = descriptorpb.FieldDescriptorProto_TYPE_SINT32
	tString   = descriptorpb.FieldDescriptorProto_TYPE_STRING
	tUint32   = descriptorpb.FieldDescriptorProto_TYPE_UINT32
	tUint64   = descriptorpb.FieldDescriptorProto_TYPE_UINT64
)

// field declares a singular field. Message and enum fields take the type
// name relative to the package, e.g. of("MeshPacket").
func field(name string, num int32, typ fieldType, opts ...fieldOpt) *descriptorpb.FieldDescriptorProto {
	fd := &descriptorpb.FieldDescriptorProto{
		Name:   proto.String(name),
		Number: proto.Int32(num),
		Type:   typ.Enum(),
		Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
	}
	for _, opt := range opts {
		opt(fd)
	}
	return fd
}

func of(typeName string) fieldOpt {
	return func(fd *descriptorpb.FieldDescriptorProto) {
		fd.TypeName = proto.String("." + Package + "." + typeName)
	}
}

func repeated() fieldOpt {
	return func(fd *descriptorpb.FieldDescriptorProto) {
		fd.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
	}
}

func message(name string, fields ...*descriptorpb.FieldDescriptorProto) *descriptorpb.DescriptorProto {
	return &descriptorpb.DescriptorProto{
		Name:  proto.String(name),
		Field: fields,
	}
}

// oneof appends fields to d as members of a new oneof group. Members stay
// contiguous in the field list.
func oneof(d *descriptorpb.DescriptorProto, name string, fields ...*descriptorpb.FieldDescriptorProto) *descriptorpb.DescriptorProto {
	idx := int32(len(d.OneofDecl))
	d.OneofDecl = append(d.OneofDecl, &descriptorpb.OneofDescriptorProto{Name: proto.String(name)})
	for _, fd := range fields {
		fd.OneofIndex = proto.Int32(idx)
		d.Field = append(d.Field, fd)
	}
	return d
}

func nest(d *descriptorpb.DescriptorProto, msgs []*descriptorpb.DescriptorProto, enums ...*descriptorpb.EnumDescriptorProto) *descriptorpb.DescriptorProto {
	d.NestedType = append(d.NestedType, msgs...)
	d.EnumType = append(d.EnumType, enums...)
	return d
}

type enumValue struct {
	name string
	num  int32
}

func enum(name string, values ...enumValue) *descriptorpb.EnumDescriptorProto {
	ed := &descriptorpb.EnumDescriptorProto{Name: proto.String(name)}
	for _, v := range values {
		ed.Value = append(ed.Value, &descriptorpb.EnumValueDescriptorProto{
			Name:   proto.String(v.name),
			Number: proto.Int32(v.num),
		})
	}
	return ed
}

// sequence names enum values 0..n-1 in order.
func sequence(names ...string) []enumValue {
	out := make([]enumValue, len(names))
	for i, n := range names {
		out[i] = enumValue{name: n, num: int32(i)}
	}
	return out
}
