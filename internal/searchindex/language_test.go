// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package searchindex

import "testing"

func TestDetectLanguageShortTextDefaultsToEnglish(t *testing.T) {
	if got := DetectLanguage("hi"); got != "en" {
		t.Fatalf("expected en for short text, got %q", got)
	}
}

func TestDetectLanguageByScript(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
	}{
		{"chinese", "这是一个测试句子，用于语言检测。", "zh"},
		{"japanese", "これはテストの文章です、言語を検出します。", "ja"},
		{"korean", "이것은 언어 감지를 위한 테스트 문장입니다.", "ko"},
		{"russian", "Это тестовое предложение для определения языка текста.", "ru"},
		{"arabic", "هذه جملة اختبار للكشف عن اللغة المستخدمة.", "ar"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := DetectLanguage(c.text); got != c.want {
				t.Fatalf("DetectLanguage(%q) = %q, want %q", c.text, got, c.want)
			}
		})
	}
}

func TestDetectLanguageByStopwords(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
	}{
		{"english", "The president was in the meeting and on the call with the staff", "en"},
		{"dutch", "De minister is op het ministerie en heeft een vergadering met de staf", "nl"},
		{"german", "Der Minister ist im Ministerium und hat eine Sitzung mit den Mitarbeitern", "de"},
		{"french", "Le president est dans la reunion avec les membres du gouvernement", "fr"},
		{"spanish", "El presidente esta en la reunion con los miembros del gobierno", "es"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := DetectLanguage(c.text); got != c.want {
				t.Fatalf("DetectLanguage(%q) = %q, want %q", c.text, got, c.want)
			}
		})
	}
}

func TestDetectLanguageNoStopwordsDefaultsToEnglish(t *testing.T) {
	if got := DetectLanguage("xyzzy plugh qwerty asdfgh zxcvbn"); got != "en" {
		t.Fatalf("expected en fallback for no stopword matches, got %q", got)
	}
}
