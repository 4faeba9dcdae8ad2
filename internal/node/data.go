package node

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/WJ4IoT/meshcodec/internal/flow"
	"github.com/WJ4IoT/meshcodec/internal/meshpb"
)

func fieldOf(m protoreflect.Message, name protoreflect.Name) protoreflect.FieldDescriptor {
	return m.Descriptor().Fields().ByName(name)
}

// portOf reads Data.portnum and Data.payload.
func portOf(data protoreflect.Message) (meshpb.PortNum, []byte) {
	port := meshpb.PortNum(data.Get(fieldOf(data, "portnum")).Enum())
	return port, data.Get(fieldOf(data, "payload")).Bytes()
}

// render converts m to the JSON object form attached to flow packets.
func render(s *meshpb.Schema, m protoreflect.Message) (map[string]any, error) {
	b, err := s.ToJSON(m.Interface())
	if err != nil {
		return nil, err
	}
	return flow.DecodeObject(b)
}

// setAddress fails if the id does not fit the 32-bit wire field.
func setAddress(packet protoreflect.Message, a flow.Address) error {
	if a.ID > math.MaxUint32 {
		return fmt.Errorf("packet id %d does not fit the wire format", a.ID)
	}
	packet.Set(fieldOf(packet, "id"), protoreflect.ValueOfUint32(uint32(a.ID)))
	packet.Set(fieldOf(packet, "from"), protoreflect.ValueOfUint32(a.From))
	packet.Set(fieldOf(packet, "to"), protoreflect.ValueOfUint32(a.To))
	return nil
}
