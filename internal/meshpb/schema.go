// Package meshpb carries the Meshtastic wire schema.
//
// The message layouts are declared as protobuf descriptors and built once at
// startup, so the package needs no protoc/codegen toolchain. Messages are
// dynamic (dynamicpb) and convert to and from the binary wire form and the
// canonical protobuf JSON form. Only the messages the payload codecs need are
// declared; fields outside this subset survive a binary round trip as unknown
// fields.
package meshpb

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
)

const (
	// Package is the protobuf package every schema type lives in.
	Package = "meshtastic"

	// Version names the upstream protobuf release the subset follows.
	Version = "meshtastic-protobufs/2.5"
)

// Fully qualified names of the messages the pipelines use directly.
const (
	ServiceEnvelope = Package + ".ServiceEnvelope"
	MeshPacket      = Package + ".MeshPacket"
	Data            = Package + ".Data"
)

var ErrUnknownType = errors.New("meshpb: unknown message type")

// Schema is an immutable registry of the Meshtastic message types.
type Schema struct {
	files *protoregistry.Files
}

// Load builds the schema. It fails only if the declarations are inconsistent.
func Load() (*Schema, error) {
	fdp := &descriptorpb.FileDescriptorProto{
		Name:        proto.String("meshtastic/meshcodec.proto"),
		Package:     proto.String(Package),
		Syntax:      proto.String("proto3"),
		MessageType: append(meshMessages(), moduleMessages()...),
		EnumType: []*descriptorpb.EnumDescriptorProto{
			enum("PortNum", portNames...),
			hardwareModel(),
		},
	}
	fd, err := protodesc.NewFile(fdp, nil)
	if err != nil {
		return nil, fmt.Errorf("meshpb: build schema: %w", err)
	}
	files := new(protoregistry.Files)
	if err := files.RegisterFile(fd); err != nil {
		return nil, fmt.Errorf("meshpb: register schema: %w", err)
	}
	return &Schema{files: files}, nil
}

// MustLoad is Load for package-level test fixtures and main.
func MustLoad() *Schema {
	s, err := Load()
	if err != nil {
		panic(err)
	}
	return s
}

// Descriptor returns the message descriptor for a fully qualified name.
func (s *Schema) Descriptor(name string) (protoreflect.MessageDescriptor, error) {
	d, err := s.files.FindDescriptorByName(protoreflect.FullName(name))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, name)
	}
	md, ok := d.(protoreflect.MessageDescriptor)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a message", ErrUnknownType, name)
	}
	return md, nil
}

// Has reports whether name is a message type of the schema.
func (s *Schema) Has(name string) bool {
	_, err := s.Descriptor(name)
	return err == nil
}

// New returns an empty message of the named type.
func (s *Schema) New(name string) (*dynamicpb.Message, error) {
	md, err := s.Descriptor(name)
	if err != nil {
		return nil, err
	}
	return dynamicpb.NewMessage(md), nil
}

// FromBinary parses wire bytes as the named message.
func (s *Schema) FromBinary(name string, b []byte) (*dynamicpb.Message, error) {
	m, err := s.New(name)
	if err != nil {
		return nil, err
	}
	if err := proto.Unmarshal(b, m); err != nil {
		return nil, fmt.Errorf("meshpb: parse %s: %w", name, err)
	}
	return m, nil
}

// ToBinary serializes m deterministically.
func (s *Schema) ToBinary(m proto.Message) ([]byte, error) {
	return proto.MarshalOptions{Deterministic: true}.Marshal(m)
}

// FromJSON parses the canonical protobuf JSON form of the named message.
// Enum fields accept names or numbers; unknown fields are rejected.
func (s *Schema) FromJSON(name string, b []byte) (*dynamicpb.Message, error) {
	m, err := s.New(name)
	if err != nil {
		return nil, err
	}
	if err := protojson.Unmarshal(b, m); err != nil {
		return nil, fmt.Errorf("meshpb: parse %s json: %w", name, err)
	}
	return m, nil
}

// ToJSON renders m with default values emitted and enums as integers, the
// shape downstream consumers of decoded packets expect.
func (s *Schema) ToJSON(m proto.Message) ([]byte, error) {
	opts := protojson.MarshalOptions{
		EmitUnpopulated: true,
		UseEnumNumbers:  true,
	}
	return opts.Marshal(m)
}
