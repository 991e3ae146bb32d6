package model

import "time"

// StudentTeacherAccess — связь «студент прикреплён к учителю».
// Бронировать уроки может только прикреплённый студент.
type StudentTeacherAccess struct {
	ID         int64     `json:"id"`
	StudentID  int64     `json:"student_id"`
	TeacherID  int64     `json:"teacher_id"`
	AccessType string    `json:"access_type"` // 'invited', 'approved', 'subscribed'
	GrantedAt  time.Time `json:"granted_at"`
}

const (
	AccessTypeInvited    = "invited"    // доступ по инвайт-коду
	AccessTypeApproved   = "approved"   // доступ по одобренной заявке
	AccessTypeSubscribed = "subscribed" // доступ по подписке
)
