package lexer

import (
	"reflect"
	"testing"
)

func TestLexBasic(t *testing.T) {
	pipeline, err := Lex("echo eins   zwei drei   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pipeline) != 1 {
		t.Fatalf("expected 1 stage, got %d", len(pipeline))
	}
	stage := pipeline[0]
	if stage.Command != "echo" {
		t.Errorf("command = %q, want echo", stage.Command)
	}
	want := []string{"eins", "zwei", "drei"}
	if !reflect.DeepEqual(stage.Args, want) {
		t.Errorf("args = %v, want %v", stage.Args, want)
	}
}

func TestLexSingleQuoted(t *testing.T) {
	pipeline, err := Lex("echo 'eins   zwei' drei")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"eins   zwei", "drei"}
	if !reflect.DeepEqual(pipeline[0].Args, want) {
		t.Errorf("args = %v, want %v", pipeline[0].Args, want)
	}
}

func TestLexDoubleQuoted(t *testing.T) {
	pipeline, err := Lex(`echo "eins   'zwei' " drei`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"eins   'zwei' ", "drei"}
	if !reflect.DeepEqual(pipeline[0].Args, want) {
		t.Errorf("args = %v, want %v", pipeline[0].Args, want)
	}
}

func TestLexEscapedQuotesOutsideQuotes(t *testing.T) {
	pipeline, err := Lex(`echo \'\"script world\"\'`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{`'"script`, `world"'`}
	if !reflect.DeepEqual(pipeline[0].Args, want) {
		t.Errorf("args = %v, want %v", pipeline[0].Args, want)
	}
}

func TestLexAdjacentFragmentsConcatenate(t *testing.T) {
	pipeline, err := Lex(`foo"bar"baz`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stage := pipeline[0]
	if stage.Command != "foobarbaz" {
		t.Errorf("command = %q, want foobarbaz", stage.Command)
	}
}

func TestLexEmptyInput(t *testing.T) {
	for _, in := range []string{"", "   ", "\t\t"} {
		if _, err := Lex(in); err == nil {
			t.Errorf("Lex(%q): expected error, got nil", in)
		}
	}
}

func TestLexPipeline(t *testing.T) {
	pipeline, err := Lex("echo eins | echo zwei | echo drei")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pipeline) != 3 {
		t.Fatalf("expected 3 stages, got %d", len(pipeline))
	}
	for i, s := range pipeline {
		if s.Command != "echo" {
			t.Errorf("stage %d command = %q, want echo", i, s.Command)
		}
	}
}

func TestLexPipeWithoutCommand(t *testing.T) {
	cases := []string{"| echo foo", "echo foo |", "echo | | foo"}
	for _, in := range cases {
		if _, err := Lex(in); err == nil {
			t.Errorf("Lex(%q): expected pipe-without-command error", in)
		}
	}
}

func TestLexUnterminatedQuotesToleratedAtEOF(t *testing.T) {
	pipeline, err := Lex(`echo 'unterminated`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"unterminated"}
	if !reflect.DeepEqual(pipeline[0].Args, want) {
		t.Errorf("args = %v, want %v", pipeline[0].Args, want)
	}
}
