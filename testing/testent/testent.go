// Package testent holds test entities and their fixtures.
package testent

import (
	"sync"
	"testing"

	"github.com/Pallinder/go-randomdata"
)

type (
	// Foo is an entity with a string identifier.
	Foo struct {
		ID  FooID  `ext:"ID" json:"id"`
		Foo string `json:"foo"`
		Bar string `json:"bar"`
		Baz string `json:"baz"`
	}
	FooID string
)

type (
	// Note is an entity with a serial, integer identifier.
	Note struct {
		ID    NoteID `ext:"ID" json:"id"`
		Title string `json:"title"`
		Body  string `json:"body"`
		Score int    `json:"score"`
	}
	NoteID int64
)

// randomdata shares a non thread-safe source.
var random sync.Mutex

func MakeFoo(testing.TB) Foo {
	random.Lock()
	defer random.Unlock()
	return Foo{
		Foo: randomdata.SillyName(),
		Bar: randomdata.Noun(),
		Baz: randomdata.Adjective(),
	}
}

func ChangeFoo(_ testing.TB, v *Foo) {
	random.Lock()
	defer random.Unlock()
	v.Bar = randomdata.Noun() + "-" + randomdata.Alphanumeric(8)
}

func MakeNote(testing.TB) Note {
	random.Lock()
	defer random.Unlock()
	return Note{
		Title: randomdata.Title(randomdata.RandomGender),
		Body:  randomdata.Paragraph(),
		Score: randomdata.Number(0, 100),
	}
}

func ChangeNote(_ testing.TB, v *Note) {
	random.Lock()
	defer random.Unlock()
	v.Title = randomdata.SillyName() + " " + randomdata.Alphanumeric(8)
	v.Score++
}
