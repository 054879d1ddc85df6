package handler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ting434252/lifebill/internal/journal"
	"github.com/ting434252/lifebill/internal/util"

	"github.com/gin-gonic/gin"
)

// maxImportSize 导入文件上限
const maxImportSize = 10 << 20

type ImportExportHandler struct{}

func NewImportExportHandler() *ImportExportHandler {
	return &ImportExportHandler{}
}

func attachment(c *gin.Context, contentType, name string) {
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", name))
}

// snapshot 在锁内复制一份当前数据，写文件时不持有会话锁
func snapshot(c *gin.Context) (journal.Dataset, bool) {
	s := session(c)
	if s == nil {
		return journal.Dataset{}, false
	}
	var ds journal.Dataset
	s.View(func(j *journal.Journal) { ds = j.Dataset() })
	return ds, true
}

// ExportCSV 导出当年度记录为 CSV
func (h *ImportExportHandler) ExportCSV(c *gin.Context) {
	ds, ok := snapshot(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := journal.WriteCSV(&buf, ds.Records); err != nil {
		respondErr(c, err)
		return
	}
	attachment(c, "text/csv; charset=utf-8", fmt.Sprintf("life_journal_%d.csv", ds.Year))
	c.Status(http.StatusOK)
	_, _ = c.Writer.Write(buf.Bytes())
}

// ExportXLSX 导出 Excel
func (h *ImportExportHandler) ExportXLSX(c *gin.Context) {
	ds, ok := snapshot(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := journal.WriteXLSX(&buf, ds.Year, ds.Records); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "生成 Excel 失敗")
		return
	}
	attachment(c, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		fmt.Sprintf("life_journal_%d.xlsx", ds.Year))
	c.Status(http.StatusOK)
	_, _ = c.Writer.Write(buf.Bytes())
}

// ExportJSON 导出完整备份（记录 + 设置）
func (h *ImportExportHandler) ExportJSON(c *gin.Context) {
	ds, ok := snapshot(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := journal.WriteBackup(&buf, ds, time.Now()); err != nil {
		respondErr(c, err)
		return
	}
	attachment(c, "application/json; charset=utf-8", fmt.Sprintf("life_journal_backup_%d.json", ds.Year))
	c.Status(http.StatusOK)
	_, _ = c.Writer.Write(buf.Bytes())
}

// importBody 支持 multipart 的 file 字段或直接的 JSON 请求体
func importBody(c *gin.Context) (io.ReadCloser, error) {
	if fh, err := c.FormFile("file"); err == nil {
		if fh.Size > maxImportSize {
			return nil, fmt.Errorf("%w: 檔案過大", journal.ErrBadBackup)
		}
		return fh.Open()
	}
	return http.MaxBytesReader(c.Writer, c.Request.Body, maxImportSize), nil
}

// Import 导入 JSON 备份并覆盖当前数据，需要 ?confirm=true。
// 文件先完整解析校验，失败时不做任何修改。
func (h *ImportExportHandler) Import(c *gin.Context) {
	s := session(c)
	if s == nil {
		return
	}
	body, err := importBody(c)
	if err != nil {
		respondErr(c, err)
		return
	}
	defer body.Close()

	in, err := journal.ParseBackup(body)
	if err != nil {
		respondErr(c, err)
		return
	}
	err = s.Do(c.Request.Context(), func(j *journal.Journal) error {
		return j.Import(in, confirmed(c))
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	s.Notify(fmt.Sprintf("已匯入 %d 筆紀錄", len(in.Records)))
	util.Success(c, util.Response{
		"message": "匯入成功",
		"records": len(in.Records),
	})
}
