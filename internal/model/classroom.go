package model

// Classroom is the minimal class record the coordinator needs: who belongs
// to it, so discovery can filter live sessions per user.
type Classroom struct {
	ID        string   `json:"id" bson:"_id,omitempty"`
	Name      string   `json:"name" bson:"name"`
	TeacherID string   `json:"teacherId" bson:"teacherId"`
	MemberIDs []string `json:"memberIds" bson:"memberIds"`
}
