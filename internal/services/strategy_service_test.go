// internal/services/strategy_service_test.go
package services

import (
	"testing"
)

func TestListByCategory(t *testing.T) {
	svc := NewStrategyService()

	all := svc.ListItems()
	attraction := svc.ListByCategory("Atração de Clientes")
	divulgacao := svc.ListByCategory("Melhorar Divulgação")

	if len(attraction)+len(divulgacao) != len(all) {
		t.Errorf("分类数量不闭合: %d + %d != %d", len(attraction), len(divulgacao), len(all))
	}
	if len(svc.ListByCategory("Categoria Inexistente")) != 0 {
		t.Error("未知分类应返回空")
	}
	for _, item := range attraction {
		if item.Category != "Atração de Clientes" {
			t.Errorf("条目 %s 分类 = %q", item.ID, item.Category)
		}
	}
}

func TestGetItems_IgnoresUnknownIDs(t *testing.T) {
	svc := NewStrategyService()

	items := svc.GetItems([]string{"1", "16", "999", ""})
	if len(items) != 2 {
		t.Fatalf("条目数 = %d, 期望 2", len(items))
	}
	got := map[string]bool{}
	for _, item := range items {
		got[item.ID] = true
	}
	if !got["1"] || !got["16"] {
		t.Errorf("返回ID集合 = %v", got)
	}

	if len(svc.GetItems(nil)) != 0 {
		t.Error("空ID集合应返回空")
	}
}

func TestSearchItems(t *testing.T) {
	svc := NewStrategyService()

	// 空条件等于全量
	if len(svc.SearchItems("", "")) != len(svc.ListItems()) {
		t.Error("空条件应返回全部条目")
	}

	// 自由文本大小写无关，匹配任一策略字段
	upper := svc.SearchItems("", "PROCRASTINAÇÃO")
	lower := svc.SearchItems("", "procrastinação")
	if len(upper) == 0 || len(upper) != len(lower) {
		t.Errorf("大小写结果不一致: %d vs %d", len(upper), len(lower))
	}

	// 分类+文本联合过滤
	both := svc.SearchItems("Melhorar Divulgação", "tecnologia")
	for _, item := range both {
		if item.Category != "Melhorar Divulgação" {
			t.Errorf("条目 %s 分类不匹配", item.ID)
		}
	}
	if len(both) == 0 {
		t.Error("联合过滤应有结果")
	}

	// 文本命中但分类不符时不返回
	if got := svc.SearchItems("Atração de Clientes", "analfabetismo digital"); len(got) != 0 {
		t.Errorf("跨分类命中 = %d 条, 期望 0", len(got))
	}

	if got := svc.SearchItems("", "palavra-que-não-existe-xyz"); len(got) != 0 {
		t.Errorf("无匹配查询返回 %d 条", len(got))
	}
}

func TestGetSchedule(t *testing.T) {
	svc := NewStrategyService()

	for _, name := range svc.ListSchedules() {
		tpl, err := svc.GetSchedule(name)
		if err != nil {
			t.Fatalf("取模板 %s 失败: %v", name, err)
		}
		if tpl.Name != name {
			t.Errorf("模板名 = %q, 期望 %q", tpl.Name, name)
		}
		if len(tpl.Days) != 7 {
			t.Errorf("模板 %s 天数 = %d, 期望 7", name, len(tpl.Days))
		}
	}

	if _, err := svc.GetSchedule("feriado"); err == nil {
		t.Error("未知模板应返回错误")
	}
}

func TestListBooks(t *testing.T) {
	svc := NewStrategyService()

	books := svc.ListBooks()
	if len(books) == 0 {
		t.Fatal("书单不应为空")
	}
	for i, book := range books {
		if book.Title == "" || book.Tag == "" {
			t.Errorf("books[%d] 缺少标题或标签: %+v", i, book)
		}
	}

	// 返回的是副本，调用方修改不应污染内部数据
	books[0].Title = "modificado"
	if svc.ListBooks()[0].Title == "modificado" {
		t.Error("ListBooks 应返回副本")
	}
}
