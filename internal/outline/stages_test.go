package outline

import (
	"reflect"
	"testing"
)

func TestExtractPlanStageTitles(t *testing.T) {
	plan := `# 写作计划

## 阶段计划

1. [ ] 需求分析与资料收集
2. [x] 初稿撰写
- [ ] 审校与修订

## 其他说明

1. [ ] 这一行不在阶段计划内
`
	got := ExtractPlanStageTitles(plan)
	want := []string{"需求分析与资料收集", "初稿撰写", "审校与修订"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractPlanStageTitles() = %v, want %v", got, want)
	}
}

func TestExtractPlanStageTitlesNoPlanHeading(t *testing.T) {
	if got := ExtractPlanStageTitles("## 大纲\n1. [ ] 某个条目\n"); got != nil {
		t.Errorf("expected nil without 阶段计划 heading, got %v", got)
	}
}

func TestStripStageMarker(t *testing.T) {
	titles := []string{"需求分析与资料收集", "初稿撰写"}

	tests := []struct {
		name  string
		text  string
		stage int
		want  string
	}{
		{
			name:  "stage number marker",
			text:  "第2阶段：初稿撰写\n正文第一段。",
			stage: 2,
			want:  "正文第一段。",
		},
		{
			name:  "title marker",
			text:  "【需求分析与资料收集】\n正文内容。",
			stage: 1,
			want:  "正文内容。",
		},
		{
			name:  "ordinal prefix marker",
			text:  "2. 初稿撰写\n正文内容。",
			stage: 2,
			want:  "正文内容。",
		},
		{
			name:  "plain body untouched",
			text:  "这一段是正文，不含阶段标记。\n第二段。",
			stage: 1,
			want:  "这一段是正文，不含阶段标记。\n第二段。",
		},
		{
			name:  "marker only",
			text:  "阶段1",
			stage: 1,
			want:  "",
		},
		{
			name:  "short ordinal sentence is body",
			text:  "2. 序号开头，但这是一句正文。\n后续内容。",
			stage: 2,
			want:  "2. 序号开头，但这是一句正文。\n后续内容。",
		},
		{
			name:  "long ordinal line is body",
			text:  "2. 本段虽然以序号开头，但内容很长，显然是正文而不是一条简短的阶段指令标记。\n后续内容。",
			stage: 2,
			want:  "2. 本段虽然以序号开头，但内容很长，显然是正文而不是一条简短的阶段指令标记。\n后续内容。",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripStageMarker(tt.text, tt.stage, titles); got != tt.want {
				t.Errorf("StripStageMarker() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStripStageMarkerIdempotent(t *testing.T) {
	titles := []string{"初稿撰写"}
	text := "第1阶段 初稿撰写\n正文。"
	once := StripStageMarker(text, 1, titles)
	twice := StripStageMarker(once, 1, titles)
	if once != twice {
		t.Errorf("second strip changed text: %q -> %q", once, twice)
	}
}

func TestLaterTitles(t *testing.T) {
	o := &Outline{Sections: []Section{
		{ID: "a", Title: "背景"},
		{ID: "b", Title: "方法"},
		{ID: "c", Title: "结论"},
	}}
	got := o.LaterTitles(0)
	want := []string{"方法", "结论"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LaterTitles(0) = %v, want %v", got, want)
	}
	if got := o.LaterTitles(2); len(got) != 0 {
		t.Errorf("LaterTitles(last) = %v, want empty", got)
	}
}
