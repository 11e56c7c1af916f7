package repositories

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
)

// Field numbers of proto/stream/stream.proto.
const (
	fieldID        protoreflect.FieldNumber = 1
	fieldResource  protoreflect.FieldNumber = 2
	fieldOutcome   protoreflect.FieldNumber = 3
	fieldStart     protoreflect.FieldNumber = 4
	fieldEnd       protoreflect.FieldNumber = 5
	fieldFileSize  protoreflect.FieldNumber = 6
	fieldBytesSent protoreflect.FieldNumber = 7
	fieldStatus    protoreflect.FieldNumber = 8
	fieldDetail    protoreflect.FieldNumber = 9
	fieldDuration  protoreflect.FieldNumber = 10
	fieldAt        protoreflect.FieldNumber = 11
)

var streamRecordDescriptor = buildStreamRecordDescriptor()

// buildStreamRecordDescriptor mirrors proto/stream/stream.proto.
func buildStreamRecordDescriptor() protoreflect.MessageDescriptor {
	field := func(name string, number protoreflect.FieldNumber, typ descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto {
		return &descriptorpb.FieldDescriptorProto{
			Name:   proto.String(name),
			Number: proto.Int32(int32(number)),
			Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
			Type:   typ.Enum(),
		}
	}
	file := &descriptorpb.FileDescriptorProto{
		Name:    proto.String("stream/stream.proto"),
		Package: proto.String("stream"),
		Syntax:  proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{{
			Name: proto.String("StreamRecord"),
			Field: []*descriptorpb.FieldDescriptorProto{
				field("id", fieldID, descriptorpb.FieldDescriptorProto_TYPE_STRING),
				field("resource", fieldResource, descriptorpb.FieldDescriptorProto_TYPE_STRING),
				field("outcome", fieldOutcome, descriptorpb.FieldDescriptorProto_TYPE_INT32),
				field("start", fieldStart, descriptorpb.FieldDescriptorProto_TYPE_INT64),
				field("end", fieldEnd, descriptorpb.FieldDescriptorProto_TYPE_INT64),
				field("file_size", fieldFileSize, descriptorpb.FieldDescriptorProto_TYPE_INT64),
				field("bytes_sent", fieldBytesSent, descriptorpb.FieldDescriptorProto_TYPE_INT64),
				field("status", fieldStatus, descriptorpb.FieldDescriptorProto_TYPE_INT32),
				field("detail", fieldDetail, descriptorpb.FieldDescriptorProto_TYPE_STRING),
				field("duration_ns", fieldDuration, descriptorpb.FieldDescriptorProto_TYPE_INT64),
				field("at_unix_nano", fieldAt, descriptorpb.FieldDescriptorProto_TYPE_INT64),
			},
		}},
	}
	fd, err := protodesc.NewFile(file, nil)
	if err != nil {
		panic(fmt.Sprintf("stream record descriptor: %v", err))
	}
	return fd.Messages().ByName("StreamRecord")
}

func fromStreamRecord(r StreamRecord) *dynamicpb.Message {
	msg := dynamicpb.NewMessage(streamRecordDescriptor)
	fields := streamRecordDescriptor.Fields()
	set := func(number protoreflect.FieldNumber, v protoreflect.Value) {
		msg.Set(fields.ByNumber(number), v)
	}
	set(fieldID, protoreflect.ValueOfString(r.ID.String()))
	set(fieldResource, protoreflect.ValueOfString(r.Resource))
	set(fieldOutcome, protoreflect.ValueOfInt32(int32(r.Outcome)))
	set(fieldStart, protoreflect.ValueOfInt64(r.Start))
	set(fieldEnd, protoreflect.ValueOfInt64(r.End))
	set(fieldFileSize, protoreflect.ValueOfInt64(r.FileSize))
	set(fieldBytesSent, protoreflect.ValueOfInt64(r.BytesSent))
	set(fieldStatus, protoreflect.ValueOfInt32(int32(r.Status)))
	set(fieldDetail, protoreflect.ValueOfString(r.Detail))
	set(fieldDuration, protoreflect.ValueOfInt64(int64(r.Duration)))
	set(fieldAt, protoreflect.ValueOfInt64(r.At.UnixNano()))
	return msg
}

func toStreamRecord(msg *dynamicpb.Message) (StreamRecord, error) {
	fields := streamRecordDescriptor.Fields()
	get := func(number protoreflect.FieldNumber) protoreflect.Value {
		return msg.Get(fields.ByNumber(number))
	}

	id, err := uuid.Parse(get(fieldID).String())
	if err != nil {
		return StreamRecord{}, fmt.Errorf("stream record id: %w", err)
	}
	return StreamRecord{
		ID:        id,
		Resource:  get(fieldResource).String(),
		Outcome:   Outcome(get(fieldOutcome).Int()),
		Start:     get(fieldStart).Int(),
		End:       get(fieldEnd).Int(),
		FileSize:  get(fieldFileSize).Int(),
		BytesSent: get(fieldBytesSent).Int(),
		Status:    int(get(fieldStatus).Int()),
		Detail:    get(fieldDetail).String(),
		Duration:  time.Duration(get(fieldDuration).Int()),
		At:        time.Unix(0, get(fieldAt).Int()).UTC(),
	}, nil
}

func marshalStreamRecord(r StreamRecord) ([]byte, error) {
	return proto.Marshal(fromStreamRecord(r))
}

// unmarshalStreamRecord keeps unknown fields of newer writers aside.
func unmarshalStreamRecord(b []byte) (StreamRecord, error) {
	msg := dynamicpb.NewMessage(streamRecordDescriptor)
	if err := proto.Unmarshal(b, msg); err != nil {
		return StreamRecord{}, err
	}
	return toStreamRecord(msg)
}

// DecodeStreamRecord reads a value stored by StoreStream.
func DecodeStreamRecord(b []byte) (StreamRecord, error) {
	return unmarshalStreamRecord(b)
}
