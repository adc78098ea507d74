package models

import "tixd/src/types"

type Gift struct {
	ID     uint   `gorm:"primarykey" json:"id"`
	Name   string `json:"name,omitempty"`
	Active bool   `gorm:"default:true" json:"active"`

	types.Timestamps
}
