package models

import "github.com/uptrace/bun"

// Venue is a boat race stadium, identified by its two digit code.
type Venue struct {
	bun.BaseModel `bun:"table:venues,alias:v"`

	Jcd  string `bun:"jcd,pk,type:char(2)" json:"jcd"`
	Name string `bun:"name,notnull" json:"name"`
	Pref string `bun:"pref,notnull" json:"pref"`
}

// Venues is the fixed list of stadiums seeded on init.
var Venues = []Venue{
	{Jcd: "01", Name: "桐生", Pref: "群馬"},
	{Jcd: "02", Name: "戸田", Pref: "埼玉"},
	{Jcd: "03", Name: "江戸川", Pref: "東京"},
	{Jcd: "04", Name: "平和島", Pref: "東京"},
	{Jcd: "05", Name: "多摩川", Pref: "東京"},
	{Jcd: "06", Name: "浜名湖", Pref: "静岡"},
	{Jcd: "07", Name: "蒲郡", Pref: "愛知"},
	{Jcd: "08", Name: "常滑", Pref: "愛知"},
	{Jcd: "09", Name: "津", Pref: "三重"},
	{Jcd: "10", Name: "三国", Pref: "福井"},
	{Jcd: "11", Name: "びわこ", Pref: "滋賀"},
	{Jcd: "12", Name: "住之江", Pref: "大阪"},
	{Jcd: "13", Name: "尼崎", Pref: "兵庫"},
	{Jcd: "14", Name: "鳴門", Pref: "徳島"},
	{Jcd: "15", Name: "丸亀", Pref: "香川"},
	{Jcd: "16", Name: "児島", Pref: "岡山"},
	{Jcd: "17", Name: "宮島", Pref: "広島"},
	{Jcd: "18", Name: "徳山", Pref: "山口"},
	{Jcd: "19", Name: "下関", Pref: "山口"},
	{Jcd: "20", Name: "若松", Pref: "福岡"},
	{Jcd: "21", Name: "芦屋", Pref: "福岡"},
	{Jcd: "22", Name: "福岡", Pref: "福岡"},
	{Jcd: "23", Name: "唐津", Pref: "佐賀"},
	{Jcd: "24", Name: "大村", Pref: "長崎"},
}
